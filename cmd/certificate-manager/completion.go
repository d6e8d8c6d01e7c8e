package main

import (
	"github.com/spf13/cobra"
)

var completionNoDescriptions bool

// completionCmd writes shell completion scripts for certificate-manager
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate the autocompletion script for the specified shell",
	Long: `Generate the autocompletion script for certificate-manager.

Load it in the current session:

  bash:        source <(certificate-manager completion bash)
  zsh:         source <(certificate-manager completion zsh)
  fish:        certificate-manager completion fish | source
  powershell:  certificate-manager completion powershell | Out-String | Invoke-Expression

For every new session on the operator workstation, write it once instead:

  certificate-manager completion bash > /etc/bash_completion.d/certificate-manager
  certificate-manager completion zsh > "${fpath[1]}/_certificate-manager"
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, out := cmd.Root(), cmd.OutOrStdout()
		withDesc := !completionNoDescriptions
		switch args[0] {
		case "bash":
			return root.GenBashCompletionV2(out, withDesc)
		case "zsh":
			if withDesc {
				return root.GenZshCompletion(out)
			}
			return root.GenZshCompletionNoDesc(out)
		case "fish":
			return root.GenFishCompletion(out, withDesc)
		default:
			if withDesc {
				return root.GenPowerShellCompletionWithDesc(out)
			}
			return root.GenPowerShellCompletion(out)
		}
	},
}

func init() {
	completionCmd.Flags().BoolVar(&completionNoDescriptions, "no-descriptions", false, "leave command and flag descriptions out of completions")
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"highlighter/internal/encoder"
	"highlighter/internal/transcode"
)

func newEncoderCommand(ctx *commandContext) *cobra.Command {
	var gpu bool

	cmd := &cobra.Command{
		Use:   "encoder",
		Short: "Negotiate the encoder profile and show the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			requested := cfg.Encoder.UseGPU || gpu
			profile := encoder.NewNegotiator(cfg, transcode.ExecRunner{}, logger).Negotiate(cmd.Context(), requested)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Hardware requested: %s\n", yesNo(requested))
			fmt.Fprintf(out, "Profile:            %s\n", profile.Name())
			fmt.Fprintf(out, "Codec:              %s\n", profile.Codec())
			fmt.Fprintf(out, "Encode arguments:   %s\n", strings.Join(profile.EncodeArgs(), " "))
			if hw := profile.HWAccelArgs(); len(hw) > 0 {
				fmt.Fprintf(out, "Decode arguments:   %s\n", strings.Join(hw, " "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&gpu, "gpu", false, "Probe the hardware encoder even if use_gpu is off")
	return cmd
}

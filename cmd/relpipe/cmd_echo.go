package main

import (
	"fmt"

	"github.com/Promptonauts/relpipe/pkg/echo"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var echoAddr string

var echoCmd = &cobra.Command{
	Use:   "echo",
	Short: "Run the dummy chat-completion server",
	Long: `Serves POST /v1/chat/completions and answers every request by echoing
the last user message, with fixed token usage. Useful for driving the
extension's chat panel without a real model.`,
	Args: cobra.NoArgs,
	RunE: runEcho,
}

func init() {
	echoCmd.Flags().StringVar(&echoAddr, "addr", "", "Listen address (default from config: localhost:4000)")
}

func runEcho(cmd *cobra.Command, args []string) error {
	spec, err := loadSpec()
	if err != nil {
		return err
	}
	addr := spec.Echo.Addr
	if echoAddr != "" {
		addr = echoAddr
	}
	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := commandContext()
	defer cancel()

	srv := echo.NewServer(addr, logger, metrics)
	fmt.Fprintf(cmd.OutOrStdout(), "Dummy GPT API running at http://%s%s\n", addr, echo.CompletionsPath)
	return srv.ListenAndServe(ctx)
}

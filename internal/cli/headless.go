package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// HeadlessCLI executes a single command and prints the result as JSON.
// Meant for scripting: `commchat -mode headless /rooms`.
type HeadlessCLI struct {
	handler *CommandHandler
}

func NewHeadlessCLI(handler *CommandHandler) *HeadlessCLI {
	return &HeadlessCLI{handler: handler}
}

func (cli *HeadlessCLI) Run(ctx context.Context, input string) error {
	cmd, err := ParseCommand(input)
	if err != nil {
		return err
	}

	result, err := cli.handler.Execute(ctx, cmd)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/teapot/packages/delivery"
	"github.com/abdul-hamid-achik/teapot/packages/http"
	"github.com/abdul-hamid-achik/teapot/packages/output"
	"github.com/abdul-hamid-achik/teapot/packages/payload"
	"github.com/abdul-hamid-achik/teapot/packages/teapot"
)

var (
	headerFlags []string
	dataFlag    string
)

var (
	getCmd    = newRequestCmd(http.MethodGet, false)
	postCmd   = newRequestCmd(http.MethodPost, true)
	putCmd    = newRequestCmd(http.MethodPut, true)
	deleteCmd = newRequestCmd(http.MethodDelete, true)
)

func newRequestCmd(method string, withBody bool) *cobra.Command {
	name := strings.ToLower(method)
	c := &cobra.Command{
		Use:   name + " <path>",
		Short: fmt.Sprintf("Send a %s request", method),
		Long: fmt.Sprintf(`Send a %s request to path, resolved against the base URL.

Examples:
  teapot %s /users --base-url https://api.example.com -H "Accept: application/json"
  teapot %s /users/1 --fixtures ./fixtures --fixture get --status 404`, method, name, name),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return requestCommand(cmd, method, args[0])
		},
	}
	c.Flags().StringArrayVarP(&headerFlags, "header", "H", nil, "Request header 'Key: Value' (repeatable)")
	if withBody {
		c.Flags().StringVarP(&dataFlag, "data", "d", "", "Request body, or @file to read it from a file")
	}
	return c
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func readBody(data string) (*payload.Payload, error) {
	if data == "" {
		return nil, nil
	}
	raw := []byte(data)
	if strings.HasPrefix(data, "@") {
		var err error
		if raw, err = os.ReadFile(data[1:]); err != nil {
			return nil, fmt.Errorf("cannot read body: %w", err)
		}
	}
	return payload.FromBytes(raw), nil
}

func requestHeaders(defaults map[string]string) (map[string]string, error) {
	parsed, err := parseHeaders(headerFlags)
	if err != nil {
		return nil, exitWith(ExitUsageError, fmt.Errorf("--header: %w", err))
	}
	out := make(map[string]string, len(defaults)+len(parsed))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range parsed {
		out[k] = v
	}
	return out, nil
}

func requestCommand(cmd *cobra.Command, method, path string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	client, _, err := buildClient(cfg)
	if err != nil {
		return err
	}
	headers, err := requestHeaders(cfg.Headers)
	if err != nil {
		return err
	}
	body, err := readBody(dataFlag)
	if err != nil {
		return exitWith(ExitUsageError, err)
	}

	formatter, closeOutput, err := newFormatter(cmd, cfg)
	if err != nil {
		return err
	}
	defer closeOutput()

	ctx, stop := signalContext()
	defer stop()

	start := time.Now()
	h := client.Do(method, path, body, nil,
		teapot.WithHeaders(headers),
		teapot.WithContext(ctx),
		teapot.WithDeliveryContext(delivery.Immediate))
	result, err := h.Await(ctx)
	if err != nil {
		return exitWith(ExitRequestFailure, fmt.Errorf("request cancelled: %w", err))
	}

	formatter.FormatExchange(&output.Exchange{
		ID:       h.ID(),
		Method:   method,
		URL:      displayURL(client.BaseURL(), path),
		Result:   result,
		Duration: time.Since(start),
	})
	if err := output.Flush(formatter, time.Since(start)); err != nil {
		return err
	}

	if err := result.Err(); err != nil {
		return exitWith(exitCodeFor(err), nil)
	}
	return nil
}

func displayURL(base, path string) string {
	if u, err := http.ResolveURL(base, path); err == nil {
		return u
	}
	return path
}

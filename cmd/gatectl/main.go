// Command gatectl talks to a hostgate server over gRPC.
//
//	gatectl [-addr host:port] check <url>
//	gatectl [-addr host:port] configure <domain> [-cap n] [-period-ms n]
//	gatectl [-addr host:port] status
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/yourusername/hostgate/rpc"
)

var errUsage = errors.New("usage: gatectl [-addr host:port] [-timeout d] check <url> | configure <domain> [-cap n] [-period-ms n] | status")

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("gatectl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	addr := fs.String("addr", "localhost:3001", "hostgate gRPC address")
	timeout := fs.Duration("timeout", 5*time.Second, "per-call timeout")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() == 0 {
		return errUsage
	}

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", *addr, err)
	}
	defer conn.Close()
	client := rpc.NewClient(conn)

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "check":
		return runCheck(ctx, client, rest, out)
	case "configure":
		return runConfigure(ctx, client, rest, out)
	case "status":
		return runStatus(ctx, client, out)
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
}

func runCheck(ctx context.Context, client *rpc.Client, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errUsage
	}
	resp, err := client.Check(ctx, args[0])
	if err != nil {
		return err
	}

	if resp.Allowed {
		fmt.Fprintf(out, "allowed %s (%.2f tokens left)\n", resp.Domain, resp.Remaining)
		return nil
	}
	if resp.RetryAfterMs > 0 {
		fmt.Fprintf(out, "denied %s (retry after %v)\n", resp.Domain, time.Duration(resp.RetryAfterMs)*time.Millisecond)
		return nil
	}
	fmt.Fprintf(out, "denied %s\n", resp.Domain)
	return nil
}

func runConfigure(ctx context.Context, client *rpc.Client, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	domain := args[0]

	fs := flag.NewFlagSet("configure", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	capacity := fs.Float64("cap", -1, "bucket capacity (server default when omitted)")
	periodMs := fs.Int64("period-ms", -1, "refill period in milliseconds (server default when omitted)")
	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	var capPtr *float64
	var periodPtr *int64
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "cap":
			capPtr = capacity
		case "period-ms":
			periodPtr = periodMs
		}
	})

	if err := client.Configure(ctx, domain, capPtr, periodPtr); err != nil {
		return err
	}
	fmt.Fprintf(out, "configured %s\n", domain)
	return nil
}

func runStatus(ctx context.Context, client *rpc.Client, out io.Writer) error {
	resp, err := client.Status(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %d buckets\n", resp.Status, resp.BucketCount)
	return nil
}

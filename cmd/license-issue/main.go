package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bionicotaku/lingo-utils-licensex"
	"github.com/bionicotaku/lingo-utils-licensex/internal/cli"
)

const prog = "license-issue"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(prog, flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		machine      string
		expires      string
		days         int
		secret       string
		secretSource string
		format       string
		pad          bool
		verify       bool
		envFile      string
	)
	fs.StringVar(&machine, "machine", "", "Machine id the license is bound to (required)")
	fs.StringVar(&machine, "m", "", "Shorthand for -machine")
	fs.StringVar(&expires, "expires", "", "Absolute expiry, ISO-8601 (e.g. 2026-09-02T14:05:46.327291)")
	fs.StringVar(&expires, "e", "", "Shorthand for -expires")
	fs.IntVar(&days, "days", 0, "Days from now until expiry")
	fs.IntVar(&days, "d", 0, "Shorthand for -days")
	fs.StringVar(&secret, "secret", "", "HMAC secret (env LICENSEX_SECRET)")
	fs.StringVar(&secret, "s", "", "Shorthand for -secret")
	fs.StringVar(&secretSource, "secret-source", "", "Secret reference env:NAME, file:PATH, jwk:PATH or gcp:projects/... (env LICENSEX_SECRET_SOURCE)")
	fs.StringVar(&format, "format", "", "Payload format observed|compact (env LICENSEX_FORMAT, default observed)")
	fs.StringVar(&format, "f", "", "Shorthand for -format")
	fs.BoolVar(&pad, "pad", false, "Keep '=' padding on the key")
	fs.BoolVar(&verify, "verify", false, "Verify the generated key locally")
	fs.StringVar(&envFile, "env", "", "Path to .env file (env LICENSEX_ENV_FILE, default .env)")
	logLevel := fs.String("log-level", "", "Log level (env LICENSEX_LOG_LEVEL, default info)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return cli.ExitOK
		}
		return cli.ExitUsage
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	envErr := cli.LoadEnvFile(cli.EnvFilePath(envFile))
	cfg, err := cli.LoadConfig(nil)
	if err != nil {
		return cli.Report(stderr, prog, fmt.Errorf("%w: %v", cli.ErrUsage, err))
	}
	log, err := cli.NewLogger(stderr, cli.FirstNonEmpty(*logLevel, cfg.LogLevel, "info"))
	if err != nil {
		return cli.Report(stderr, prog, fmt.Errorf("%w: %v", cli.ErrUsage, err))
	}
	if envErr != nil {
		log.WithError(envErr).Warn("env file not loaded")
	}

	opts, err := parseIssueFlags(fs, set, machine, expires, days, cli.FirstNonEmpty(format, cfg.Format, licensex.FormatObserved.String()), pad)
	if err != nil {
		return cli.Report(stderr, prog, err)
	}

	sel := cli.SecretFlags(secret, set["secret"] || set["s"], secretSource, cfg)
	key, err := cli.ResolveSecret(context.Background(), licensex.NewSecretCache(), sel, log)
	if err != nil {
		return cli.Report(stderr, prog, err)
	}

	issuer, err := licensex.NewIssuer(licensex.IssuerConfig{Secret: key})
	if err != nil {
		return cli.Report(stderr, prog, err)
	}
	if issuer.UsesDefaultSecret() {
		cli.WarnDefaultSecret(log)
	}

	license, err := issuer.Issue(machine, opts...)
	if err != nil {
		return cli.Report(stderr, prog, err)
	}
	entry := log.WithField("machine_id", license.Claims.MachineID).WithField("format", license.Format.String())
	if license.Claims.Expires() {
		entry = entry.WithField("expires_at", licensex.FormatExpiry(license.Claims.ExpiresAt))
	}
	entry.Debug("license issued")

	cli.PrintLicense(stdout, license)
	if !verify {
		return cli.ExitOK
	}

	verifier, err := licensex.NewVerifier(licensex.VerifierConfig{Secret: key})
	if err != nil {
		return cli.Report(stderr, prog, err)
	}
	result := verifier.Verify(license.Key)
	cli.PrintVerification(stdout, result)
	if !result.Valid {
		log.WithField("reason", string(result.Reason)).Error("self-verification failed")
		return cli.ExitFailure
	}
	return cli.ExitOK
}

// parseIssueFlags validates the flag combination before any secret is
// resolved or key minted.
func parseIssueFlags(fs *flag.FlagSet, set map[string]bool, machine, expires string, days int, format string, pad bool) ([]licensex.IssueOption, error) {
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: unexpected arguments %q", cli.ErrUsage, fs.Args())
	}
	if strings.TrimSpace(machine) == "" {
		return nil, fmt.Errorf("%w: -machine is required", cli.ErrUsage)
	}

	hasExpires := set["expires"] || set["e"]
	hasDays := set["days"] || set["d"]
	if hasExpires == hasDays {
		return nil, fmt.Errorf("%w: exactly one of -expires or -days is required", cli.ErrUsage)
	}

	f, err := licensex.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	opts := []licensex.IssueOption{licensex.WithFormat(f), licensex.WithPadding(pad)}

	if hasExpires {
		at, err := licensex.ParseExpiry(expires)
		if err != nil {
			return nil, fmt.Errorf("%w: -expires: %v", cli.ErrUsage, err)
		}
		return append(opts, licensex.WithExpiresAt(at)), nil
	}
	return append(opts, licensex.WithValidDays(days)), nil
}

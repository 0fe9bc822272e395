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

const prog = "license-verify"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(prog, flag.ContinueOnError)
	fs.SetOutput(stderr)

	token := fs.String("token", "", "License key to verify (env LICENSEX_TOKEN)")
	machine := fs.String("machine", "", "Require the license to be bound to this machine id")
	secret := fs.String("secret", "", "HMAC secret (env LICENSEX_SECRET)")
	secretSource := fs.String("secret-source", "", "Secret reference env:NAME, file:PATH, jwk:PATH or gcp:projects/... (env LICENSEX_SECRET_SOURCE)")
	envFile := fs.String("env", "", "Path to .env file (env LICENSEX_ENV_FILE, default .env)")
	logLevel := fs.String("log-level", "", "Log level (env LICENSEX_LOG_LEVEL, default info)")
	asJSON := fs.Bool("json", false, "Print the result as JSON")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return cli.ExitOK
		}
		return cli.ExitUsage
	}

	envErr := cli.LoadEnvFile(cli.EnvFilePath(*envFile))
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

	if fs.NArg() > 0 {
		return cli.Report(stderr, prog, fmt.Errorf("%w: unexpected arguments %q", cli.ErrUsage, fs.Args()))
	}
	key := cli.FirstNonEmpty(strings.TrimSpace(*token), strings.TrimSpace(cfg.Token))
	if key == "" {
		return cli.Report(stderr, prog, fmt.Errorf("%w: -token or LICENSEX_TOKEN is required", cli.ErrUsage))
	}

	secretSet := false
	fs.Visit(func(f *flag.Flag) { secretSet = secretSet || f.Name == "secret" })
	sel := cli.SecretFlags(*secret, secretSet, *secretSource, cfg)
	hmacKey, err := cli.ResolveSecret(context.Background(), licensex.NewSecretCache(), sel, log)
	if err != nil {
		return cli.Report(stderr, prog, err)
	}

	verifier, err := licensex.NewVerifier(licensex.VerifierConfig{Secret: hmacKey})
	if err != nil {
		return cli.Report(stderr, prog, err)
	}
	if verifier.UsesDefaultSecret() {
		cli.WarnDefaultSecret(log)
	}

	result := verifier.Verify(key)
	if *asJSON {
		if err := cli.WriteResultJSON(stdout, result); err != nil {
			return cli.Report(stderr, prog, err)
		}
	} else {
		cli.PrintVerification(stdout, result)
	}

	if _, err := result.Require(*machine); err != nil {
		log.WithField("code", string(licensex.CodeOf(err))).Info(err.Error())
		return cli.ExitFailure
	}
	return cli.ExitOK
}

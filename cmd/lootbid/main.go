package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cloudx-io/secretlootbid/core"
	"github.com/cloudx-io/secretlootbid/sealing"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailed  = 1
	exitRuntime = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "--help" || args[0] == "-h" || args[0] == "help" {
		showUsage(stdout)
		if len(args) == 0 {
			return exitRuntime
		}
		return exitOK
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "validate":
		return runValidate(rest, stdout, stderr)
	case "commit":
		return runCommit(rest, stdout, stderr)
	case "verify":
		return runVerify(rest, stdout, stderr)
	case "seal":
		return runSeal(rest, stdout, stderr)
	case "open":
		return runOpen(rest, stdout, stderr)
	case "keygen":
		return runKeygen(rest, stdout, stderr)
	default:
		showUsage(stdout)
		fmt.Fprintf(stderr, "\nError: unknown command %q\n", cmd)
		return exitRuntime
	}
}

func showUsage(w io.Writer) {
	fmt.Fprintln(w, "Secret Loot Bid CLI")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Validates, commits to and seals loot-box bid amounts.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  lootbid <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  validate --amount <a> [--max <m>]                 Check a bid amount")
	fmt.Fprintln(w, "  commit   --amount <a> [--salt <s>]                Compute sha256(amount+salt)")
	fmt.Fprintln(w, "  verify   --amount <a> --commitment <c> --salt <s> Check a revealed bid")
	fmt.Fprintln(w, "  seal     --box <id> --amount <a> [--mode simulated|hybrid] [--public-key <pem file>] [--salt <s>]")
	fmt.Fprintln(w, "  open     --key <pem file> --value <encrypted value> [--box <id>]")
	fmt.Fprintln(w, "  keygen   --out <pem file>                         Generate a hybrid sealing key")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Common Flags:")
	fmt.Fprintln(w, "  --format <text|json>                              Output format (default: text)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  lootbid validate --amount 0.5")
	fmt.Fprintln(w, "  lootbid commit --amount 0.5 --format json")
	fmt.Fprintln(w, "  lootbid verify --amount 0.5 --commitment 0x... --salt 9f2c...")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Exit Codes:")
	fmt.Fprintln(w, "  0 - Success")
	fmt.Fprintln(w, "  1 - Amount invalid or commitment mismatch")
	fmt.Fprintln(w, "  2 - Invalid input or runtime error")
}

func newFlagSet(name string, stderr io.Writer) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	format := fs.String("format", "text", "Output format: text or json")
	return fs, format
}

func runValidate(args []string, stdout, stderr io.Writer) int {
	fs, format := newFlagSet("validate", stderr)
	amount := fs.String("amount", "", "Bid amount in ETH")
	maxBid := fs.String("max", core.DefaultMaxBidAmount.String(), "Maximum bid amount in ETH")
	if err := fs.Parse(args); err != nil {
		return exitRuntime
	}

	ceiling, err := decimal.NewFromString(*maxBid)
	if err != nil {
		fmt.Fprintf(stderr, "Error: invalid --max %q: %v\n", *maxBid, err)
		return exitRuntime
	}

	result := core.NewValidator(ceiling).Validate(*amount)
	if *format == "json" {
		out := map[string]any{"is_valid": result.IsValid}
		if !result.IsValid {
			out["error"] = result.Message()
		}
		if err := writeJSON(stdout, out); err != nil {
			fmt.Fprintf(stderr, "Error marshaling JSON: %v\n", err)
			return exitRuntime
		}
	} else if result.IsValid {
		fmt.Fprintf(stdout, "VALID: %s\n", strings.TrimSpace(*amount))
	} else {
		fmt.Fprintf(stdout, "INVALID: %s\n", result.Message())
	}

	if !result.IsValid {
		return exitFailed
	}
	return exitOK
}

func runCommit(args []string, stdout, stderr io.Writer) int {
	fs, format := newFlagSet("commit", stderr)
	amount := fs.String("amount", "", "Bid amount")
	salt := fs.String("salt", "", "Salt (random if empty)")
	if err := fs.Parse(args); err != nil {
		return exitRuntime
	}

	if result := core.ValidateBidData(*amount); !result.IsValid {
		fmt.Fprintf(stderr, "Error: %v\n", result.Err())
		return exitFailed
	}

	commitment, err := core.GenerateCommitment(strings.TrimSpace(*amount), *salt)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitRuntime
	}

	if *format == "json" {
		if err := writeJSON(stdout, commitment); err != nil {
			fmt.Fprintf(stderr, "Error marshaling JSON: %v\n", err)
			return exitRuntime
		}
		return exitOK
	}
	fmt.Fprintf(stdout, "Commitment: %s\n", commitment.Value)
	fmt.Fprintf(stdout, "Salt:       %s\n", commitment.Salt)
	fmt.Fprintln(stdout, "Keep the salt private until the reveal phase.")
	return exitOK
}

func runVerify(args []string, stdout, stderr io.Writer) int {
	fs, format := newFlagSet("verify", stderr)
	amount := fs.String("amount", "", "Revealed bid amount")
	commitment := fs.String("commitment", "", "Commitment to check")
	salt := fs.String("salt", "", "Revealed salt")
	if err := fs.Parse(args); err != nil {
		return exitRuntime
	}
	if *commitment == "" {
		fmt.Fprintln(stderr, "Error: --commitment is required")
		return exitRuntime
	}

	valid := core.VerifyCommitment(*amount, *commitment, *salt)
	if *format == "json" {
		if err := writeJSON(stdout, map[string]bool{"valid": valid}); err != nil {
			fmt.Fprintf(stderr, "Error marshaling JSON: %v\n", err)
			return exitRuntime
		}
	} else if valid {
		fmt.Fprintln(stdout, "COMMITMENT: ✓ MATCHES")
	} else {
		fmt.Fprintln(stdout, "COMMITMENT: ✗ DOES NOT MATCH")
	}

	if !valid {
		return exitFailed
	}
	return exitOK
}

func runSeal(args []string, stdout, stderr io.Writer) int {
	fs, format := newFlagSet("seal", stderr)
	amount := fs.String("amount", "", "Bid amount in ETH")
	boxID := fs.Uint64("box", 0, "Loot box ID the bid is for")
	salt := fs.String("salt", "", "Salt (random if empty)")
	modeName := fs.String("mode", string(sealing.ModeSimulated), "Sealing mode: simulated or hybrid")
	publicKeyFile := fs.String("public-key", "", "PEM public key file (hybrid mode)")
	if err := fs.Parse(args); err != nil {
		return exitRuntime
	}

	if result := core.ValidateBidData(*amount); !result.IsValid {
		fmt.Fprintf(stderr, "Error: %v\n", result.Err())
		return exitFailed
	}

	sealer, err := buildSealer(*modeName, *publicKeyFile)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitRuntime
	}

	sealed, err := sealer.Seal(context.Background(), *boxID, strings.TrimSpace(*amount), *salt)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitRuntime
	}

	if *format == "json" {
		out := map[string]any{
			"mode":            string(sealer.Mode()),
			"box_id":          *boxID,
			"encrypted_value": sealed.EncryptedValue,
			"proof":           sealed.Proof,
			"commitment":      sealed.Commitment,
			"salt":            sealed.Salt,
		}
		if err := writeJSON(stdout, out); err != nil {
			fmt.Fprintf(stderr, "Error marshaling JSON: %v\n", err)
			return exitRuntime
		}
		return exitOK
	}
	fmt.Fprintf(stdout, "Mode:            %s\n", sealer.Mode())
	fmt.Fprintf(stdout, "Box:             %d\n", *boxID)
	fmt.Fprintf(stdout, "Encrypted value: %s\n", sealed.EncryptedValue)
	fmt.Fprintf(stdout, "Proof:           %s\n", sealed.Proof)
	fmt.Fprintf(stdout, "Commitment:      %s\n", sealed.Commitment)
	fmt.Fprintf(stdout, "Salt:            %s\n", sealed.Salt)
	return exitOK
}

func buildSealer(modeName, publicKeyFile string) (sealing.Sealer, error) {
	mode, err := sealing.ParseMode(modeName)
	if err != nil {
		return nil, err
	}
	if mode == sealing.ModeSimulated {
		return sealing.NewSimulated(nil), nil
	}

	if publicKeyFile == "" {
		return nil, fmt.Errorf("hybrid mode requires --public-key")
	}
	data, err := os.ReadFile(publicKeyFile)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	publicKey, err := sealing.ParsePublicKeyPEM(string(data))
	if err != nil {
		return nil, err
	}
	hybrid, err := sealing.NewHybrid(publicKey, sealing.HashAlgorithmSHA256, nil)
	if err != nil {
		return nil, err
	}
	return hybrid, nil
}

func runOpen(args []string, stdout, stderr io.Writer) int {
	fs, format := newFlagSet("open", stderr)
	keyFile := fs.String("key", "", "PEM private key file")
	value := fs.String("value", "", "Encrypted value (0x-hex)")
	boxID := fs.Uint64("box", 0, "Expected loot box ID (checked when set)")
	if err := fs.Parse(args); err != nil {
		return exitRuntime
	}
	checkBox := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "box" {
			checkBox = true
		}
	})

	data, err := os.ReadFile(*keyFile)
	if err != nil {
		fmt.Fprintf(stderr, "Error reading key: %v\n", err)
		return exitRuntime
	}
	keys, err := sealing.LoadKeyManager(data)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitRuntime
	}

	opened, err := keys.Open(*value)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitRuntime
	}
	if checkBox {
		if err := opened.ForBox(*boxID); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitFailed
		}
	}

	if *format == "json" {
		if err := writeJSON(stdout, opened); err != nil {
			fmt.Fprintf(stderr, "Error marshaling JSON: %v\n", err)
			return exitRuntime
		}
		return exitOK
	}
	fmt.Fprintf(stdout, "Box:    %d\n", opened.BoxID)
	fmt.Fprintf(stdout, "Amount: %s\n", opened.Amount)
	return exitOK
}

func runKeygen(args []string, stdout, stderr io.Writer) int {
	fs, _ := newFlagSet("keygen", stderr)
	out := fs.String("out", "", "File to write the PEM private key to")
	if err := fs.Parse(args); err != nil {
		return exitRuntime
	}
	if *out == "" {
		fmt.Fprintln(stderr, "Error: --out is required")
		return exitRuntime
	}

	keys, err := sealing.NewKeyManager()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitRuntime
	}
	privatePEM, err := keys.PrivateKeyPEM()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitRuntime
	}
	if err := os.WriteFile(*out, privatePEM, 0o600); err != nil {
		fmt.Fprintf(stderr, "Error writing key: %v\n", err)
		return exitRuntime
	}

	publicPEM, err := keys.PublicKeyPEM()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitRuntime
	}
	fmt.Fprint(stdout, publicPEM)
	return exitOK
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

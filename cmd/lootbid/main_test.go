package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/cloudx-io/secretlootbid/core"
	"github.com/cloudx-io/secretlootbid/sealing"
)

type sealOutput struct {
	Mode           string `json:"mode"`
	BoxID          uint64 `json:"box_id"`
	EncryptedValue string `json:"encrypted_value"`
	Commitment     string `json:"commitment"`
	Salt           string `json:"salt"`
}

func runCLI(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestValidate(t *testing.T) {
	tests := []struct {
		args     []string
		wantCode int
		wantOut  string
	}{
		{[]string{"validate", "--amount", "0.5"}, exitOK, "VALID: 0.5"},
		{[]string{"validate", "--amount", "0"}, exitFailed, "amount must be greater than 0"},
		{[]string{"validate", "--amount", "abc"}, exitFailed, "invalid amount format"},
		{[]string{"validate", "--amount", "1500"}, exitFailed, "amount too large"},
		{[]string{"validate", "--amount", "1500", "--max", "2000"}, exitOK, "VALID"},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			code, out, _ := runCLI(tt.args...)
			check.Equal(t, tt.wantCode, code)
			check.True(t, strings.Contains(out, tt.wantOut))
		})
	}
}

func TestCommitAndVerify(t *testing.T) {
	code, out, _ := runCLI("commit", "--amount", "0.5", "--salt", "s1", "--format", "json")
	assert.Equal(t, exitOK, code)

	var commitment core.Commitment
	assert.NoError(t, json.Unmarshal([]byte(out), &commitment))
	check.Equal(t, core.ComputeCommitment("0.5", "s1"), commitment.Value)

	code, _, _ = runCLI("verify", "--amount", "0.5", "--commitment", commitment.Value, "--salt", "s1")
	check.Equal(t, exitOK, code)

	code, out, _ = runCLI("verify", "--amount", "0.6", "--commitment", commitment.Value, "--salt", "s1")
	check.Equal(t, exitFailed, code)
	check.True(t, strings.Contains(out, "DOES NOT MATCH"))

	code, _, _ = runCLI("verify", "--amount", "0.5")
	check.Equal(t, exitRuntime, code)
}

func TestCommit_RejectsInvalidAmounts(t *testing.T) {
	for _, amount := range []string{"abc", "0", "-5", "1500"} {
		t.Run(amount, func(t *testing.T) {
			code, out, stderr := runCLI("commit", "--amount", amount, "--salt", "s1")
			check.Equal(t, exitFailed, code)
			check.Equal(t, "", out)
			check.True(t, strings.Contains(stderr, "invalid bid amount"))
		})
	}
}

func TestCommit_HashesTrimmedAmount(t *testing.T) {
	code, out, _ := runCLI("commit", "--amount", " 0.5 ", "--salt", "s1", "--format", "json")
	assert.Equal(t, exitOK, code)

	var commitment core.Commitment
	assert.NoError(t, json.Unmarshal([]byte(out), &commitment))
	check.Equal(t, core.ComputeCommitment("0.5", "s1"), commitment.Value)
}

func TestSealSimulated(t *testing.T) {
	code, out, _ := runCLI("seal", "--box", "3", "--amount", "0.5", "--salt", "s1", "--format", "json")
	assert.Equal(t, exitOK, code)

	var sealed sealOutput
	assert.NoError(t, json.Unmarshal([]byte(out), &sealed))
	check.Equal(t, "simulated", sealed.Mode)
	check.Equal(t, uint64(3), sealed.BoxID)
	check.Equal(t, core.ComputeCiphertextDigest("0.5"), sealed.EncryptedValue)
	check.Equal(t, core.ComputeCommitment("0.5", "s1"), sealed.Commitment)

	code, _, _ = runCLI("seal", "--amount", "abc")
	check.Equal(t, exitFailed, code)
}

func TestKeygenSealOpen(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "sealing.pem")
	publicFile := filepath.Join(dir, "sealing.pub")

	code, publicPEM, _ := runCLI("keygen", "--out", keyFile)
	assert.Equal(t, exitOK, code)
	assert.NoError(t, writeFile(publicFile, publicPEM))

	code, out, stderr := runCLI("seal", "--box", "6", "--amount", "8.3", "--mode", "hybrid", "--public-key", publicFile, "--format", "json")
	assert.Equal(t, exitOK, code)
	check.Equal(t, "", stderr)

	var sealed sealOutput
	assert.NoError(t, json.Unmarshal([]byte(out), &sealed))
	check.Equal(t, "hybrid", sealed.Mode)

	code, out, _ = runCLI("open", "--key", keyFile, "--value", sealed.EncryptedValue, "--format", "json")
	assert.Equal(t, exitOK, code)

	var opened sealing.OpenedBid
	assert.NoError(t, json.Unmarshal([]byte(out), &opened))
	check.Equal(t, "8.3", opened.Amount)
	check.Equal(t, uint64(6), opened.BoxID)

	code, _, _ = runCLI("open", "--key", keyFile, "--value", sealed.EncryptedValue, "--box", "6")
	check.Equal(t, exitOK, code)

	code, _, stderr = runCLI("open", "--key", keyFile, "--value", sealed.EncryptedValue, "--box", "1")
	check.Equal(t, exitFailed, code)
	check.True(t, strings.Contains(stderr, sealing.ErrBoxMismatch.Error()))
}

func TestSealHybridRequiresKey(t *testing.T) {
	code, _, stderr := runCLI("seal", "--amount", "1", "--mode", "hybrid")
	check.Equal(t, exitRuntime, code)
	check.True(t, strings.Contains(stderr, "--public-key"))
}

func TestUnknownCommand(t *testing.T) {
	code, _, stderr := runCLI("bid")
	check.Equal(t, exitRuntime, code)
	check.True(t, strings.Contains(stderr, "unknown command"))

	code, out, _ := runCLI("--help")
	check.Equal(t, exitOK, code)
	check.True(t, strings.Contains(out, "Usage:"))
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}

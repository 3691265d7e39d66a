package cmd

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/mitchellh/go-homedir"
)

const (
	testXprv = "xprv9s21ZrQH143K2zPNSbKDKusTNW4XVwvTCCEFvcLkeNyauqJJd9UjZg3AtfZbmXa22TFph2NdACUPoWR4sCqMCKQM1j7jRvLuBCF3YoapsX6"
	testXpub = "xpub661MyMwAqRbcFUTqYcrDh3pBvXu1uQeJZR9rizkNCiWZnddTAgnz7UMejwX7u4xLmh2JMTtL7DdZmBWGUKa7v836UarassQ3DVFATMzRycV"
	testFprv = "fprv4LsXPWzhTTp9ax8NGVwbnRFuT3avVQ4ydHNWcu8hCGZd18TRKxgAzbrpY9bLJRe4Y2AyX9TfQdDPbmqEYoDCTju9QFZbUgdsxsmUgfvuEDK"
	testFpub = "fpub8sZZXw2wbqVpURAAA9cCBpv2256rejFtCayHuRAzcYN1qciBxMVmB6UgiDAQTUZh5EP9JZciPQPjKAHyqPYHELqEHWkvo1sxreEJgLyfCJj"

	btcPub = "020383047c8dbb013ce0c54c491c9a86ed720a8369b0d0911281fc3e95d1c9cdbf"
	btcWIF = "L5TCCDDQ2n9WnX3QVXubrZAryn5uoWQcTjube4N6frro2tbfLoiE"
	ethPub = "02b5586fb410aafd76305705149069f7282de8b7a535ab96a252a41208edf78737"
	solPub = "cdff9320114119fd2add3a20b5cf852470dc08d4cefb31874304d3813a0ad51f"
)

func TestMain(m *testing.M) {
	// Disable caching mechanism from go-homedir for all "cmd" package tests.
	homedir.DisableCache = true
	code := m.Run()
	homedir.DisableCache = false
	os.Exit(code)
}

// runCmd executes the root command against a home directory and returns
// stdout.
func runCmd(t *testing.T, home string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--home", home, "--log-level", "none"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

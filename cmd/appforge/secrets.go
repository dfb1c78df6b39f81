package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/term"

	"appforge/pkg/config"
)

func cmdSecrets(args []string) int {
	fs := flag.NewFlagSet("secrets", flag.ExitOnError)
	projectDir := commonFlags(fs)
	_ = fs.Parse(args)

	rest := fs.Args()
	if len(rest) < 1 {
		fmt.Fprintln(os.Stderr, "secrets: expected a subcommand: set <name> [value]")
		return 2
	}

	switch rest[0] {
	case "set":
		if len(rest) < 2 {
			fmt.Fprintln(os.Stderr, "secrets set: expected a secret name, e.g. ANTHROPIC_API_KEY")
			return 2
		}
		return secretsSet(*projectDir, rest[1], rest[2:])
	default:
		fmt.Fprintf(os.Stderr, "secrets: unknown subcommand %q\n", rest[0])
		return 2
	}
}

func secretsSet(projectDir, name string, rest []string) int {
	value := ""
	if len(rest) > 0 {
		value = rest[0]
	} else {
		fmt.Printf("Value for %s: ", name)
		raw, err := term.ReadPassword(syscall.Stdin)
		fmt.Println()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read value: %v\n", err)
			return 1
		}
		value = string(raw)
	}
	if value == "" {
		fmt.Fprintln(os.Stderr, "secrets set: empty value")
		return 2
	}

	// Existing secrets must be decrypted first so the rewrite keeps
	// them.
	password := ""
	if config.SecretsFileExists(projectDir) {
		var err error
		password, err = promptPassword("Password for this project: ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
		if err := config.LoadSecretsFile(projectDir, password); err != nil {
			fmt.Fprintf(os.Stderr, "failed to decrypt secrets: %v\n", err)
			return 1
		}
	} else {
		var err error
		password, err = promptNewPassword()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
	}

	config.SetSecret(name, value)
	if err := config.SaveSecretsFile(projectDir, password); err != nil {
		fmt.Fprintf(os.Stderr, "failed to save secrets: %v\n", err)
		return 1
	}

	fmt.Printf("Saved %s to %s/.appforge/secrets.json.enc\n", name, projectDir)
	return 0
}

// loadSecrets decrypts the project's secrets file into memory if one
// exists. The password comes from APPFORGE_PASSWORD or an interactive
// prompt.
func loadSecrets(projectDir string) error {
	if !config.SecretsFileExists(projectDir) {
		return nil
	}

	password := os.Getenv("APPFORGE_PASSWORD")
	if password == "" {
		var err error
		password, err = promptPassword("Password for this project: ")
		if err != nil {
			return err
		}
	}
	return config.LoadSecretsFile(projectDir, password)
}

func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	raw, err := term.ReadPassword(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(raw), nil
}

// promptNewPassword asks for a password twice and requires a match.
func promptNewPassword() (string, error) {
	const maxAttempts = 3
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		fmt.Print("Choose a password for this project: ")
		first, err := term.ReadPassword(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}

		fmt.Print("Confirm password: ")
		second, err := term.ReadPassword(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}

		if bytes.Equal(first, second) {
			password := string(first)
			for i := range first {
				first[i] = 0
			}
			for i := range second {
				second[i] = 0
			}
			return password, nil
		}
		if attempt < maxAttempts {
			fmt.Println("Passwords do not match, try again.")
		}
	}
	return "", fmt.Errorf("passwords did not match after %d attempts", maxAttempts)
}

package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"stortingsync/internal/app/server/api/http/middleware/auth"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var hashTokenCmd = &cobra.Command{
	Use:   "hash-token",
	Short: "Получить bcrypt-хэш для ADMIN_TOKEN_HASH",
	Long: `Читает токен администратора с терминала (или одной строкой из stdin)
и печатает его bcrypt-хэш для переменной ADMIN_TOKEN_HASH.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := readSecret()
		if err != nil {
			return err
		}
		if len(token) < 16 {
			return errors.New("токен должен содержать минимум 16 символов")
		}

		hash, err := auth.HashToken(token)
		if err != nil {
			return err
		}
		fmt.Println(hash)
		return nil
	},
}

func readSecret() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		var line string
		if _, err := fmt.Fscanln(os.Stdin, &line); err != nil {
			return "", fmt.Errorf("ошибка чтения токена: %w", err)
		}
		return strings.TrimSpace(line), nil
	}

	fmt.Fprint(os.Stderr, "Токен: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("ошибка чтения токена: %w", err)
	}
	fmt.Fprint(os.Stderr, "Повторите токен: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("ошибка чтения токена: %w", err)
	}
	if string(first) != string(second) {
		return "", errors.New("токены не совпадают")
	}
	return strings.TrimSpace(string(first)), nil
}

func init() {
	rootCmd.AddCommand(hashTokenCmd)
}

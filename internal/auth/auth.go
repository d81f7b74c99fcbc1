// Package auth resolves WRDS database credentials from the environment,
// the pgpass file and, as a last resort, an interactive terminal prompt.
package auth

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jackc/pgpassfile"
	"golang.org/x/term"
)

// Credentials is a resolved WRDS login. An empty Password means the
// connection relies on the driver's own passfile lookup.
type Credentials struct {
	User     string
	Password string
}

// Entry is a single pgpass line.
type Entry struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// Resolve returns the WRDS login to connect with. Values provided via
// config win; a missing password is looked up in the pgpass file; when
// that fails and stdin is a terminal, the user is prompted and offered
// to save the line for the next start.
func Resolve(host string, port int, database, user, password string) (Credentials, error) {
	if user != "" && password != "" {
		return Credentials{User: user, Password: password}, nil
	}

	path, pathErr := DefaultPgpassPath()
	if pathErr == nil && user != "" {
		pass, ok, err := LookupPgpass(path, host, port, database, user)
		if err != nil {
			return Credentials{}, fmt.Errorf("lookup pgpass: %w", err)
		}
		if ok {
			return Credentials{User: user, Password: pass}, nil
		}
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return Credentials{User: user, Password: password}, nil
	}

	reader := bufio.NewReader(os.Stdin)
	creds, err := promptCredentials(reader, user)
	if err != nil {
		return Credentials{}, err
	}

	if pathErr == nil && offerPgpassSave(reader) {
		entry := Entry{Host: host, Port: port, Database: database, User: creds.User, Password: creds.Password}
		if err := AppendPgpass(path, entry); err != nil {
			return creds, fmt.Errorf("append pgpass: %w", err)
		}
		fmt.Fprintf(os.Stderr, "saved credentials to %s\n", path)
	}
	return creds, nil
}

// DefaultPgpassPath returns PGPASSFILE when set, otherwise ~/.pgpass.
func DefaultPgpassPath() (string, error) {
	if p := os.Getenv("PGPASSFILE"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".pgpass"), nil
}

// LookupPgpass returns the password for host:port:database:user from the
// pgpass file, honoring * wildcards and backslash escapes. A missing file
// is not an error, just a miss. An empty password counts as a miss, same
// as the driver's own passfile fallback.
func LookupPgpass(path, host string, port int, database, user string) (string, bool, error) {
	passfile, err := pgpassfile.ReadPassfile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	password := passfile.FindPassword(host, strconv.Itoa(port), database, user)
	return password, password != "", nil
}

// AppendPgpass appends the entry to the pgpass file, creating it with
// 0600 permissions when absent.
func AppendPgpass(path string, e Entry) error {
	line := strings.Join([]string{
		escapePgpassField(e.Host),
		strconv.Itoa(e.Port),
		escapePgpassField(e.Database),
		escapePgpassField(e.User),
		escapePgpassField(e.Password),
	}, ":")

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		line = "\n" + line
	}
	_, err = f.WriteString(line + "\n")
	return err
}

var pgpassEscaper = strings.NewReplacer(`\`, `\\`, `:`, `\:`)

func escapePgpassField(s string) string {
	return pgpassEscaper.Replace(s)
}

func promptCredentials(reader *bufio.Reader, user string) (Credentials, error) {
	if user == "" {
		fmt.Fprint(os.Stderr, "WRDS username: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return Credentials{}, fmt.Errorf("read username: %w", err)
		}
		user = strings.TrimSpace(line)
		if user == "" {
			return Credentials{}, fmt.Errorf("empty username")
		}
	}

	fmt.Fprintf(os.Stderr, "WRDS password for %s: ", user)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return Credentials{}, fmt.Errorf("read password: %w", err)
	}
	return Credentials{User: user, Password: string(raw)}, nil
}

func offerPgpassSave(reader *bufio.Reader) bool {
	fmt.Fprint(os.Stderr, "Save credentials to pgpass for next time? [y/N]: ")
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

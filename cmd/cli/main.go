// Command cmsctl is a CLI client for the site-content service.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/atotto/clipboard"

	"github.com/and161185/sitecms/pkg/client"
)

// ---- config/session store ----

type sessionFile struct {
	Name      string    `json:"name"`
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "sitecms")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "sitecms")
}

func sessionPath() string { return filepath.Join(cfgDir(), "session.json") }

func saveSession(ck *http.Cookie, now time.Time) error {
	if err := os.MkdirAll(cfgDir(), 0o700); err != nil {
		return err
	}
	exp := ck.Expires
	if ck.MaxAge > 0 {
		exp = now.Add(time.Duration(ck.MaxAge) * time.Second)
	}
	if exp.IsZero() {
		exp = now.Add(7 * 24 * time.Hour)
	}
	b, err := json.MarshalIndent(sessionFile{Name: ck.Name, Value: ck.Value, ExpiresAt: exp}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(sessionPath(), b, 0o600)
}

func loadSession(now time.Time) (*http.Cookie, error) {
	b, err := os.ReadFile(sessionPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, client.ErrNoSession
		}
		return nil, err
	}
	var sf sessionFile
	if err := json.Unmarshal(b, &sf); err != nil {
		return nil, err
	}
	if sf.Value == "" || now.After(sf.ExpiresAt) {
		return nil, client.ErrNoSession
	}
	return &http.Cookie{Name: sf.Name, Value: sf.Value}, nil
}

func clearSession() error {
	err := os.Remove(sessionPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// ---- utils ----

func readAll(p string) ([]byte, error) {
	if p == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(p)
}

func usage() {
	fmt.Fprintf(os.Stderr, `cmsctl CLI
Usage:
  cmsctl [-addr URL] [-cookie NAME] <cmd> [args]

Commands:
  version
  login    -p <password>                        (saves session)
  check
  logout
  pull     [-o <file>] [-clipboard]
  push     -file <json|->
  reset
  section  -name <hero|about|contact> -file <json|->
`)
	os.Exit(2)
}

// ---- main ----

var (
	version   = "dev"
	buildDate = "unknown"
)

// main dispatches subcommands; every command except login and version reuses the saved session.
func main() {
	addr := flag.String("addr", "http://localhost:8080", "server base URL")
	cookie := flag.String("cookie", client.DefaultCookieName, "session cookie name")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	opts := []client.Option{client.WithCookieName(*cookie)}
	if ck, err := loadSession(time.Now()); err == nil {
		opts = append(opts, client.WithSession(ck))
	}
	c := client.New(*addr, opts...)

	var err error
	switch cmd {
	case "version":
		fmt.Printf("cmsctl %s (%s)\n", version, buildDate)
	case "login":
		err = cmdLogin(ctx, c, args, os.Stdout)
	case "check":
		err = cmdCheck(ctx, c, os.Stdout)
	case "logout":
		err = cmdLogout(ctx, c, os.Stdout)
	case "pull":
		err = cmdPull(ctx, c, args, os.Stdout)
	case "push":
		err = cmdPush(ctx, c, args, os.Stdout)
	case "reset":
		err = cmdReset(ctx, c, os.Stdout)
	case "section":
		err = cmdSection(ctx, c, args, os.Stdout)
	default:
		usage()
	}
	if err != nil {
		fail(err)
	}
}

func cmdLogin(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	p := fs.String("p", "", "admin password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *p == "" {
		return errors.New("need -p")
	}

	ck, err := c.Login(ctx, *p)
	if err != nil {
		return err
	}
	if err := saveSession(ck, time.Now()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	fmt.Fprintln(out, "ok")
	return nil
}

func cmdCheck(ctx context.Context, c *client.Client, out io.Writer) error {
	ok, err := c.Check(ctx)
	if err != nil {
		return err
	}
	if !ok {
		_ = clearSession()
		fmt.Fprintln(out, "not authenticated")
		return nil
	}
	fmt.Fprintln(out, "authenticated")
	return nil
}

func cmdLogout(ctx context.Context, c *client.Client, out io.Writer) error {
	if c.Session() != nil {
		if err := c.Logout(ctx); err != nil {
			return err
		}
	}
	if err := clearSession(); err != nil {
		return err
	}
	fmt.Fprintln(out, "ok")
	return nil
}

func cmdPull(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("pull", flag.ContinueOnError)
	o := fs.String("o", "", "write to file instead of stdout")
	clip := fs.Bool("clipboard", false, "copy to the system clipboard")
	if err := fs.Parse(args); err != nil {
		return err
	}

	doc, err := c.Content(ctx)
	if err != nil {
		return err
	}

	switch {
	case *o != "":
		if err := os.WriteFile(*o, append(doc, '\n'), 0o644); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %d bytes to %s\n", len(doc), *o)
	case *clip:
		if clipboard.Unsupported {
			return errors.New("clipboard is not supported on this system")
		}
		if err := clipboard.WriteAll(string(doc)); err != nil {
			return fmt.Errorf("clipboard: %w", err)
		}
		fmt.Fprintln(out, "copied to clipboard")
	default:
		fmt.Fprintln(out, string(doc))
	}
	return nil
}

func cmdPush(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("push", flag.ContinueOnError)
	file := fs.String("file", "", "document to upload (- for stdin)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return errors.New("need -file")
	}

	doc, err := readAll(*file)
	if err != nil {
		return err
	}
	if err := c.PushContent(ctx, doc); err != nil {
		return err
	}
	fmt.Fprintln(out, "ok")
	return nil
}

func cmdReset(ctx context.Context, c *client.Client, out io.Writer) error {
	if err := c.ResetContent(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "ok")
	return nil
}

// ---- helpers ----

func fail(err error) {
	var httpErr *client.HTTPError
	switch {
	case errors.Is(err, client.ErrNoSession):
		fmt.Fprintln(os.Stderr, "no valid session; run: cmsctl login -p <password>")
	case errors.As(err, &httpErr):
		fmt.Fprintf(os.Stderr, "server error: code=%d msg=%s\n", httpErr.StatusCode, httpErr.Message)
	default:
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(1)
}

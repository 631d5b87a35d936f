// Command pdfctl is a terminal client for the pdfmark API.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"pdfmark/internal/client"
)

const usage = `usage: pdfctl [-server URL] [-session PATH] <command> [flags]

commands:
  register      create an account
  login         log in and save the session
  logout        revoke the refresh token and forget the session
  whoami        show the logged-in user and dashboard counts
  upload        upload a PDF
  list          list your files (-edited for edited ones only)
  show          show one file's metadata
  download      save a file's original or edited PDF
  edit          stamp text annotations onto a file
  admin-files   list every file (admin)
  admin-edited  list every edited file (admin)
`

var errUsage = errors.New("invalid usage")

type app struct {
	client      *client.Client
	server      string
	sessionPath string
	in          *bufio.Reader
	out         io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "pdfctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	defaultPath, err := client.DefaultSessionPath()
	if err != nil {
		return err
	}
	defaultServer := os.Getenv("PDFMARK_SERVER")
	if defaultServer == "" {
		defaultServer = "http://localhost:8080"
	}

	fs := flag.NewFlagSet("pdfctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	server := fs.String("server", defaultServer, "API base URL (used by register and login)")
	sessionPath := fs.String("session", defaultPath, "session file")
	if err := fs.Parse(args); err != nil || fs.NArg() == 0 {
		return errUsage
	}

	a := &app{
		client:      client.New(nil),
		server:      *server,
		sessionPath: *sessionPath,
		in:          bufio.NewReader(stdin),
		out:         stdout,
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "register":
		return a.register(ctx, rest)
	case "login":
		return a.login(ctx, rest)
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami(ctx)
	case "upload":
		return a.upload(ctx, rest)
	case "list":
		return a.list(ctx, rest)
	case "show":
		return a.show(ctx, rest)
	case "download":
		return a.download(ctx, rest)
	case "edit":
		return a.edit(ctx, rest)
	case "admin-files":
		return a.adminList(ctx, false)
	case "admin-edited":
		return a.adminList(ctx, true)
	default:
		return errUsage
	}
}

// session loads the saved session. Commands that use it call save
// afterwards so refreshed tokens are kept.
func (a *app) session() (*client.Session, error) {
	s, err := client.LoadSession(a.sessionPath)
	if errors.Is(err, client.ErrNoSession) {
		return nil, errors.New("not logged in, run 'pdfctl login' first")
	}
	return s, err
}

func (a *app) save(s *client.Session) error {
	return s.Save(a.sessionPath)
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	username := fs.String("username", "", "username")
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "email")
	role := fs.String("role", "", "user or admin")
	if err := fs.Parse(args); err != nil || *username == "" {
		return errUsage
	}

	password, err := promptPassword(a.in, a.out, "Password")
	if err != nil {
		return err
	}

	u, err := a.client.Register(ctx, a.server, client.RegisterRequest{
		Username: *username,
		Password: password,
		Name:     *name,
		Email:    *email,
		Role:     *role,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "registered %s (id=%d, role=%s)\n", u.Username, u.ID, u.Role)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	username := fs.String("username", "", "username")
	if err := fs.Parse(args); err != nil || *username == "" {
		return errUsage
	}

	password, err := promptPassword(a.in, a.out, "Password")
	if err != nil {
		return err
	}

	s, err := a.client.Login(ctx, a.server, *username, password)
	if err != nil {
		return err
	}
	if err := a.save(s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	fmt.Fprintf(a.out, "logged in as %s (%s)\n", s.Identity.Username, s.Identity.Role)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	s, err := a.session()
	if err != nil {
		return err
	}
	if err := a.client.Logout(ctx, s); err != nil {
		fmt.Fprintln(a.out, "warning: server logout failed:", err)
	}
	if err := client.RemoveSession(a.sessionPath); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "logged out")
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	s, err := a.session()
	if err != nil {
		return err
	}
	dash, err := a.client.Dashboard(ctx, s)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, dash.Message)
	fmt.Fprintf(a.out, "role: %s\nfiles: %d (%d edited)\n", dash.Role, dash.TotalFiles, dash.EditedFiles)
	return a.save(s)
}

func (a *app) upload(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	s, err := a.session()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	f, err := a.client.Upload(ctx, s, filepath.Base(args[0]), data)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "uploaded %s as file %d\n", f.DisplayName, f.ID)
	return a.save(s)
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	edited := fs.Bool("edited", false, "only edited files")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	s, err := a.session()
	if err != nil {
		return err
	}

	list := a.client.ListFiles
	if *edited {
		list = a.client.ListEditedFiles
	}
	files, err := list(ctx, s)
	if err != nil {
		return err
	}
	a.printFiles(files, false)
	return a.save(s)
}

func (a *app) adminList(ctx context.Context, edited bool) error {
	s, err := a.session()
	if err != nil {
		return err
	}
	if !s.IsAdmin() {
		return errors.New("admin role required")
	}

	list := a.client.AdminListAll
	if edited {
		list = a.client.AdminListEdited
	}
	files, err := list(ctx, s)
	if err != nil {
		return err
	}
	a.printFiles(files, true)
	return a.save(s)
}

func (a *app) show(ctx context.Context, args []string) error {
	id, err := fileID(args)
	if err != nil {
		return err
	}
	s, err := a.session()
	if err != nil {
		return err
	}

	f, err := a.client.GetFile(ctx, s, id)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return err
	}
	return a.save(s)
}

func (a *app) download(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	edited := fs.Bool("edited", false, "download the edited version")
	output := fs.String("o", "", "output path")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	id, err := fileID(fs.Args())
	if err != nil {
		return err
	}
	s, err := a.session()
	if err != nil {
		return err
	}

	data, err := a.client.DownloadRaw(ctx, s, id, *edited)
	if err != nil {
		return err
	}
	path := *output
	if path == "" {
		path = fmt.Sprintf("file-%d.pdf", id)
		if *edited {
			path = fmt.Sprintf("file-%d-edited.pdf", id)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "wrote %d bytes to %s\n", len(data), path)
	return a.save(s)
}

// edit takes annotations from repeated -a flags, from a JSON file given
// with -f, or both; flag annotations go after the file's.
func (a *app) edit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	var annotations annotationList
	fs.Var(&annotations, "a", "annotation page:x:y:text (repeatable)")
	file := fs.String("f", "", "JSON file with {annotations, viewport}")
	viewport := fs.String("viewport", "", "page size the coordinates refer to, WIDTHxHEIGHT")
	fontSize := fs.Float64("size", 0, "font size for -a annotations")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	id, err := fileID(fs.Args())
	if err != nil {
		return err
	}

	var req client.EditRequest
	if *file != "" {
		raw, err := os.ReadFile(*file)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(raw, &req); err != nil {
			return fmt.Errorf("parse %s: %w", *file, err)
		}
	}
	for _, an := range annotations {
		an.FontSize = *fontSize
		req.Annotations = append(req.Annotations, an)
	}
	if *viewport != "" {
		if req.Viewport, err = parseViewport(*viewport); err != nil {
			return err
		}
	}

	s, err := a.session()
	if err != nil {
		return err
	}
	f, err := a.client.Edit(ctx, s, id, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "file %d edited with %d annotations\n", f.ID, len(req.Annotations))
	return a.save(s)
}

func (a *app) printFiles(files []client.File, withOwner bool) {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	if withOwner {
		fmt.Fprintln(tw, "ID\tOWNER\tNAME\tEDITED\tCREATED")
	} else {
		fmt.Fprintln(tw, "ID\tNAME\tEDITED\tCREATED")
	}
	for _, f := range files {
		created := f.CreatedAt.Local().Format("2006-01-02 15:04")
		if withOwner {
			fmt.Fprintf(tw, "%d\t%d\t%s\t%t\t%s\n", f.ID, f.OwnerID, f.DisplayName, f.Edited, created)
		} else {
			fmt.Fprintf(tw, "%d\t%s\t%t\t%s\n", f.ID, f.DisplayName, f.Edited, created)
		}
	}
	tw.Flush()
}

func fileID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, errUsage
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid file id %q", args[0])
	}
	return id, nil
}

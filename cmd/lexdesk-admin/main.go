// ABOUTME: Admin CLI for lexdesk content management
// ABOUTME: Manages glossary terms, legal documents, and professional approvals over REST

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/lexdesk/lexdesk/internal/api"
	"github.com/lexdesk/lexdesk/internal/credentials"
)

const banner = `
 _              _           _
| | _____  ____| | ___  ___| | __
| |/ _ \ \/ / _' |/ _ \/ __| |/ /
| |  __/>  < (_| |  __/\__ \   <
|_|\___/_/\_\__,_|\___||___/_|\_\
`

const requestTimeout = 30 * time.Second

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "login":
		err = cmdLogin(args)
	case "logout":
		err = cmdLogout(args)
	case "whoami":
		err = cmdWhoami()
	case "glossary":
		err = cmdGlossary(args)
	case "documents":
		err = cmdDocuments(args)
	case "professionals":
		err = cmdProfessionals(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: lexdesk-admin <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  login --user <id> --token <jwt>    Store a bearer token locally")
	fmt.Println("  logout                             Remove the stored token")
	fmt.Println("  whoami                             Show the stored identity and token expiry")
	fmt.Println("  glossary list                      List glossary terms")
	fmt.Println("  glossary create                    Create a glossary term")
	fmt.Println("  glossary delete <id>               Delete a glossary term")
	fmt.Println("  documents list                     List legal documents")
	fmt.Println("  documents create                   Create a document record")
	fmt.Println("  documents delete <id>              Delete a document record")
	fmt.Println("  professionals list                 List professional records")
	fmt.Println("  professionals approve <id>         Approve a pending professional")
	fmt.Println("  professionals reject <id>          Reject a pending professional")
	fmt.Println("  professionals delete <id>          Delete a professional record")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  LEXDESK_API_URL    Backend base URL (default: http://localhost:8080/api)")
	fmt.Println("  LEXDESK_TOKEN      Bearer token (overrides the stored credential)")
	fmt.Println()
	yellow.Println("Examples:")
	fmt.Println("  lexdesk-admin login --user admin --token \"eyJhbG...\"")
	fmt.Println("  lexdesk-admin glossary create --term 'Habeas corpus' --definition '...' --category latin")
	fmt.Println("  lexdesk-admin professionals approve 7f3c...")
	fmt.Println()
}

func apiURL() string {
	if u := os.Getenv("LEXDESK_API_URL"); u != "" {
		return u
	}
	return "http://localhost:8080/api"
}

func credentialPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "lexdesk-credentials.db"
	}
	return filepath.Join(home, ".lexdesk", "credentials.db")
}

// getToken prefers the environment, then the stored credential.
func getToken() string {
	if tok := os.Getenv("LEXDESK_TOKEN"); tok != "" {
		return tok
	}

	store, err := credentials.Open(credentialPath(), nil)
	if err != nil {
		return ""
	}
	defer store.Close()

	cred, err := store.Load(context.Background(), credentials.DefaultProfile)
	if err != nil {
		return ""
	}
	return cred.Token
}

func newClient() (*api.Client, error) {
	token := getToken()
	if token == "" {
		return nil, fmt.Errorf("no token: run 'lexdesk-admin login' or set LEXDESK_TOKEN")
	}
	return api.New(apiURL(), requestTimeout, func() string { return token }, nil), nil
}

func cmdLogin(args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	user := fs.String("user", "", "User id for the stored profile")
	token := fs.String("token", "", "Bearer token")
	fs.Parse(args)

	if *user == "" || *token == "" {
		return fmt.Errorf("login requires --user and --token")
	}

	if info, err := credentials.InspectToken(*token); err == nil && info.Expired(time.Now()) {
		color.Yellow("Warning: token is already expired (exp %s)\n", info.ExpiresAt.Format(time.RFC3339))
	}

	store, err := credentials.Open(credentialPath(), nil)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Save(context.Background(), credentials.Credential{
		UserID: *user,
		Token:  *token,
	}); err != nil {
		return err
	}

	color.Green("Token stored for %s\n", *user)
	return nil
}

func cmdLogout(_ []string) error {
	store, err := credentials.Open(credentialPath(), nil)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(context.Background(), credentials.DefaultProfile); err != nil {
		return err
	}
	fmt.Println("Stored token removed")
	return nil
}

func cmdWhoami() error {
	store, err := credentials.Open(credentialPath(), nil)
	if err != nil {
		return err
	}
	defer store.Close()

	cred, err := store.Load(context.Background(), credentials.DefaultProfile)
	if errors.Is(err, credentials.ErrNotFound) {
		return fmt.Errorf("no stored credential: run 'lexdesk-admin login'")
	}
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  Identity")
	cyan.Println("  --------")
	fmt.Printf("  User ID:   %s\n", cred.UserID)
	fmt.Printf("  Saved:     %s\n", cred.SavedAt.Format(time.RFC3339))

	if info, err := credentials.InspectToken(cred.Token); err == nil {
		if info.Subject != "" {
			fmt.Printf("  Subject:   %s\n", info.Subject)
		}
		if !info.ExpiresAt.IsZero() {
			if info.Expired(time.Now()) {
				color.Red("  Expires:   %s (EXPIRED)\n", info.ExpiresAt.Format(time.RFC3339))
			} else {
				fmt.Printf("  Expires:   %s\n", info.ExpiresAt.Format(time.RFC3339))
			}
		}
	}
	fmt.Println()
	return nil
}

func cmdGlossary(args []string) error {
	sub := "list"
	if len(args) > 0 {
		sub = args[0]
		args = args[1:]
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	switch sub {
	case "list":
		terms, pagination, err := client.ListGlossaryTerms(ctx, 1, 100)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTERM\tCATEGORY\tUPDATED")
		for _, t := range terms {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ID, t.Term, t.Category, t.UpdatedAt.Format("2006-01-02"))
		}
		w.Flush()
		printPageInfo(pagination)
		return nil

	case "create":
		fs := flag.NewFlagSet("glossary create", flag.ExitOnError)
		term := fs.String("term", "", "Term")
		definition := fs.String("definition", "", "Definition")
		category := fs.String("category", "", "Category")
		fs.Parse(args)

		if *term == "" || *definition == "" {
			return fmt.Errorf("glossary create requires --term and --definition")
		}

		created, err := client.CreateGlossaryTerm(ctx, &api.GlossaryTerm{
			Term:       *term,
			Definition: *definition,
			Category:   *category,
		})
		if err != nil {
			return err
		}
		color.Green("Created glossary term %s\n", created.ID)
		return nil

	case "delete":
		if len(args) < 1 {
			return fmt.Errorf("glossary delete requires an id")
		}
		if err := client.DeleteGlossaryTerm(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted glossary term %s\n", args[0])
		return nil

	default:
		return fmt.Errorf("unknown glossary subcommand: %s", sub)
	}
}

func cmdDocuments(args []string) error {
	sub := "list"
	if len(args) > 0 {
		sub = args[0]
		args = args[1:]
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	switch sub {
	case "list":
		docs, pagination, err := client.ListLegalDocuments(ctx, 1, 100)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tTYPE\tUPDATED")
		for _, d := range docs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.ID, d.Title, d.DocType, d.UpdatedAt.Format("2006-01-02"))
		}
		w.Flush()
		printPageInfo(pagination)
		return nil

	case "create":
		fs := flag.NewFlagSet("documents create", flag.ExitOnError)
		title := fs.String("title", "", "Document title")
		docType := fs.String("type", "", "Document type")
		summary := fs.String("summary", "", "Short summary")
		fileURL := fs.String("url", "", "File URL")
		fs.Parse(args)

		if *title == "" {
			return fmt.Errorf("documents create requires --title")
		}

		created, err := client.CreateLegalDocument(ctx, &api.LegalDocument{
			Title:   *title,
			DocType: *docType,
			Summary: *summary,
			FileURL: *fileURL,
		})
		if err != nil {
			return err
		}
		color.Green("Created document %s\n", created.ID)
		return nil

	case "delete":
		if len(args) < 1 {
			return fmt.Errorf("documents delete requires an id")
		}
		if err := client.DeleteLegalDocument(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted document %s\n", args[0])
		return nil

	default:
		return fmt.Errorf("unknown documents subcommand: %s", sub)
	}
}

func cmdProfessionals(args []string) error {
	sub := "list"
	if len(args) > 0 {
		sub = args[0]
		args = args[1:]
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	switch sub {
	case "list":
		pros, pagination, err := client.ListProfessionals(ctx, 1, 100)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tREGISTRATION\tSPECIALTY\tSTATUS")
		for _, p := range pros {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Registration, p.Specialty, statusLabel(p.Status))
		}
		w.Flush()
		printPageInfo(pagination)
		return nil

	case "approve":
		if len(args) < 1 {
			return fmt.Errorf("professionals approve requires an id")
		}
		updated, err := client.ApproveProfessional(ctx, args[0])
		if err != nil {
			return err
		}
		color.Green("Approved %s (%s)\n", updated.Name, updated.ID)
		return nil

	case "reject":
		fs := flag.NewFlagSet("professionals reject", flag.ExitOnError)
		reason := fs.String("reason", "", "Rejection reason")
		if len(args) < 1 {
			return fmt.Errorf("professionals reject requires an id")
		}
		id := args[0]
		fs.Parse(args[1:])

		updated, err := client.RejectProfessional(ctx, id, *reason)
		if err != nil {
			return err
		}
		color.Yellow("Rejected %s (%s)\n", updated.Name, updated.ID)
		return nil

	case "delete":
		if len(args) < 1 {
			return fmt.Errorf("professionals delete requires an id")
		}
		if err := client.DeleteProfessional(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted professional %s\n", args[0])
		return nil

	default:
		return fmt.Errorf("unknown professionals subcommand: %s", sub)
	}
}

func statusLabel(status string) string {
	switch status {
	case "approved":
		return color.GreenString(status)
	case "rejected":
		return color.RedString(status)
	case "pending":
		return color.YellowString(status)
	default:
		return status
	}
}

func printPageInfo(p *api.Pagination) {
	if p == nil || p.PerPage <= 0 || p.Total <= p.PerPage {
		return
	}
	pages := (p.Total + p.PerPage - 1) / p.PerPage
	fmt.Printf("\nPage %d of %d (%d total)\n", p.Page, pages, p.Total)
}

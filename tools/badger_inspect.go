package main

import (
	"collab-chat/repositories"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
)

func main() {
	_ = godotenv.Load()
	dbPath := flag.String("db", os.Getenv("BADGER_FILEPATH"), "Path to badger DB")
	show := flag.String("show", "all", "What to list: users, projects or all")
	flag.Parse()
	if *dbPath == "" {
		log.Fatal("missing -db or BADGER_FILEPATH")
	}

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	if *show == "all" || *show == "users" {
		if err := printUsers(repositories.NewUserRepository(db)); err != nil {
			log.Fatal(err)
		}
	}
	if *show == "all" || *show == "projects" {
		if err := printProjects(repositories.NewProjectRepository(db)); err != nil {
			log.Fatal(err)
		}
	}
}

func printUsers(repository repositories.UserRepository) error {
	users, err := repository.ListUsers()
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	table := newTable([]string{"Email", "User ID", "Created"})
	for _, u := range users {
		table.Append([]string{u.Email, u.ID, u.CreatedAt.Format(time.DateTime)})
	}
	fmt.Printf("USERS (%d)\n", len(users))
	table.Render()
	return nil
}

func printProjects(repository repositories.ProjectRepository) error {
	projects, err := repository.ListProjects()
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}
	table := newTable([]string{"Project ID", "Name", "Members", "Created"})
	for _, p := range projects {
		table.Append([]string{p.ID.String(), p.Name, strings.Join(p.Members, ","), p.CreatedAt.Format(time.DateTime)})
	}
	fmt.Printf("\nPROJECTS (%d)\n", len(projects))
	table.Render()
	return nil
}

func newTable(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

// openDB opens read-only, next to a running gateway.
func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}

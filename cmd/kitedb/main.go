// Command kitedb is the interactive shell: it owns a directory of
// named database files, lets an operator switch between them, and
// forwards anything that isn't a meta-command or an admin verb to the
// active database's query pipeline.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/kitedb/kitedb/internal/config"
	"github.com/kitedb/kitedb/internal/record"
	"github.com/kitedb/kitedb/pkg/kitedb"
)

func main() {
	dir := flag.String("dir", "./databases", "directory holding database files")
	flag.Parse()

	shell, err := newShell(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start: %v\n", err)
		os.Exit(1)
	}
	defer shell.closeAll()

	color.Cyan("KiteDB - embeddable graph engine shell")
	fmt.Println("Type '.help' for commands, '.exit' to quit")
	fmt.Println()

	shell.run()
}

// shell owns every database opened during the session, keyed by name,
// plus which one is currently active.
type shell struct {
	dir    string
	dbs    map[string]*kitedb.DB
	active string
	rl     *readline.Instance
}

func newShell(dir string) (*shell, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	rl, err := readline.New("kitedb> ")
	if err != nil {
		return nil, fmt.Errorf("start line editor: %w", err)
	}
	return &shell{dir: dir, dbs: make(map[string]*kitedb.DB), rl: rl}, nil
}

func (s *shell) closeAll() {
	for name, db := range s.dbs {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "closing %s: %v\n", name, err)
		}
	}
	s.rl.Close()
}

func (s *shell) run() {
	for {
		s.rl.SetPrompt(s.prompt())
		line, err := s.rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			color.Yellow("goodbye")
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "read error: %v\n", err)
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == ".exit" || line == ".quit" {
			color.Yellow("goodbye")
			return
		}
		if strings.HasPrefix(line, ".") {
			s.handleMeta(line)
			continue
		}
		s.handleLine(line)
	}
}

func (s *shell) prompt() string {
	if s.active == "" {
		return "kitedb> "
	}
	return fmt.Sprintf("kitedb[%s]> ", s.active)
}

// handleLine dispatches administrative verbs (database lifecycle and
// enumeration commands that fall outside the query grammar) before
// falling back to the active database's query pipeline.
func (s *shell) handleLine(line string) {
	upper := strings.ToUpper(line)
	switch {
	case strings.HasPrefix(upper, "CREATE DATABASE "):
		s.createDatabase(strings.TrimSpace(line[len("CREATE DATABASE "):]))
	case strings.HasPrefix(upper, "DROP DATABASE "):
		s.dropDatabase(strings.TrimSpace(line[len("DROP DATABASE "):]))
	case strings.HasPrefix(upper, "USE "):
		s.useDatabase(strings.TrimSpace(line[len("USE "):]))
	case upper == "SHOW DATABASES":
		s.showDatabases()
	case upper == "SHOW NODES":
		s.showNodes()
	case upper == "SHOW EDGES":
		s.showEdges()
	case upper == "DESCRIBE DATABASE":
		s.describeDatabase()
	case upper == "CLEAR DATABASE":
		s.clearDatabase()
	default:
		s.executeQuery(line)
	}
}

func (s *shell) requireActive() (*kitedb.DB, bool) {
	if s.active == "" {
		color.Red("no active database, run USE <name> or CREATE DATABASE <name> first")
		return nil, false
	}
	return s.dbs[s.active], true
}

func (s *shell) dbPath(name string) string {
	return filepath.Join(s.dir, name+".db")
}

func (s *shell) createDatabase(name string) {
	if name == "" {
		color.Red("usage: CREATE DATABASE <name>")
		return
	}
	if _, exists := s.dbs[name]; exists {
		color.Red("database %q is already open", name)
		return
	}
	db, err := kitedb.Open(s.dbPath(name), config.Defaults())
	if err != nil {
		color.Red("create database: %v", err)
		return
	}
	s.dbs[name] = db
	s.active = name
	color.Green("created and switched to %q", name)
}

func (s *shell) dropDatabase(name string) {
	if name == "" {
		color.Red("usage: DROP DATABASE <name>")
		return
	}
	if db, open := s.dbs[name]; open {
		db.Close()
		delete(s.dbs, name)
		if s.active == name {
			s.active = ""
		}
	}
	if err := os.Remove(s.dbPath(name)); err != nil && !os.IsNotExist(err) {
		color.Red("drop database: %v", err)
		return
	}
	color.Green("dropped %q", name)
}

func (s *shell) useDatabase(name string) {
	if name == "" {
		color.Red("usage: USE <name>")
		return
	}
	if _, open := s.dbs[name]; !open {
		if _, err := os.Stat(s.dbPath(name)); err != nil {
			color.Red("no such database %q, run CREATE DATABASE %s first", name, name)
			return
		}
		db, err := kitedb.Open(s.dbPath(name), config.Defaults())
		if err != nil {
			color.Red("open database: %v", err)
			return
		}
		s.dbs[name] = db
	}
	s.active = name
	color.Green("switched to %q", name)
}

func (s *shell) showDatabases() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		color.Red("show databases: %v", err)
		return
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".db") {
			names = append(names, strings.TrimSuffix(e.Name(), ".db"))
		}
	}
	sort.Strings(names)
	if len(names) == 0 {
		fmt.Println("(no databases)")
		return
	}
	for _, name := range names {
		marker := "  "
		if name == s.active {
			marker = "* "
		}
		fmt.Printf("%s%s\n", marker, name)
	}
}

func (s *shell) showNodes() {
	db, ok := s.requireActive()
	if !ok {
		return
	}
	nodes, err := db.AllNodes()
	if err != nil {
		color.Red("show nodes: %v", err)
		return
	}
	if len(nodes) == 0 {
		fmt.Println("(no nodes)")
		return
	}
	for _, n := range nodes {
		fmt.Printf("(%d) labels=%v properties=%s\n", n.ID, n.Labels, propsString(n.Properties))
	}
}

func (s *shell) showEdges() {
	db, ok := s.requireActive()
	if !ok {
		return
	}
	edges, err := db.AllEdges()
	if err != nil {
		color.Red("show edges: %v", err)
		return
	}
	if len(edges) == 0 {
		fmt.Println("(no edges)")
		return
	}
	for _, e := range edges {
		fmt.Printf("[%d] (%d)-[:%s]->(%d) properties=%s\n", e.ID, e.Source, e.Type, e.Target, propsString(e.Properties))
	}
}

func (s *shell) describeDatabase() {
	db, ok := s.requireActive()
	if !ok {
		return
	}
	st := db.Stats()
	fmt.Printf("pages:        %d\n", st.PageCount)
	fmt.Printf("cached pages: %d\n", st.CachedPages)
	fmt.Printf("next node id: %d\n", st.NextNodeID)
	fmt.Printf("next edge id: %d\n", st.NextEdgeID)
	fmt.Printf("wal ops:      %d\n", st.WALHistoryLen)
	fmt.Printf("stale pages:  %d\n", st.StalePageCount)
}

func (s *shell) clearDatabase() {
	db, ok := s.requireActive()
	if !ok {
		return
	}
	nodes, err := db.AllNodes()
	if err != nil {
		color.Red("clear database: %v", err)
		return
	}
	edges, err := db.AllEdges()
	if err != nil {
		color.Red("clear database: %v", err)
		return
	}
	for _, e := range edges {
		if _, err := db.ExecuteQuery(fmt.Sprintf("MATCH (a)-[r:%s]->(b) DELETE r", e.Type)); err != nil {
			color.Red("clear database: %v", err)
			return
		}
	}
	for _, n := range nodes {
		for _, l := range n.Labels {
			if _, err := db.ExecuteQuery(fmt.Sprintf("MATCH (a:%s) DELETE a", l)); err != nil {
				color.Red("clear database: %v", err)
				return
			}
		}
	}
	color.Green("cleared %q", s.active)
}

func (s *shell) executeQuery(text string) {
	db, ok := s.requireActive()
	if !ok {
		return
	}
	rows, err := db.ExecuteQuery(text)
	if err != nil {
		color.Red("error: %v", err)
		return
	}
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return
	}
	for _, row := range rows {
		fmt.Println(row)
	}
}

func (s *shell) handleMeta(cmd string) {
	switch cmd {
	case ".help":
		s.showHelp()
	case ".stats":
		s.describeDatabase()
	default:
		color.Red("unknown meta command: %s", cmd)
		fmt.Println("type '.help' for available commands")
	}
}

func (s *shell) showHelp() {
	fmt.Println(`
Database lifecycle:
  CREATE DATABASE <name>   create and switch to a new database
  DROP DATABASE <name>     close and delete a database file
  USE <name>               switch the active database
  SHOW DATABASES           list database files in this shell's directory

Administrative:
  SHOW NODES               list every node in the active database
  SHOW EDGES               list every edge in the active database
  DESCRIBE DATABASE        print storage/index/WAL counters
  CLEAR DATABASE           delete every edge and every labelled node
                           (nodes with no label are left in place)

Anything else is executed as a query against the active database.

Meta commands:
  .stats   alias for DESCRIBE DATABASE
  .help    show this message
  .exit    quit the shell`)
}

func propsString(props []record.Property) string {
	parts := make([]string, 0, len(props))
	for _, p := range props {
		parts = append(parts, fmt.Sprintf("%s=%s", p.Key, p.Value.String()))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

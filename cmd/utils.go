package cmd

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"gitlab.com/lfmsh/bank/models"
)

// PromptYesNo asks prompt on writer and reads the answer from reader.
// Anything but y or yes is a no.
func PromptYesNo(reader io.Reader, writer io.Writer, prompt string) (bool, error) {
	fmt.Fprintf(writer, "%s (y/N): ", prompt)
	answer, err := bufio.NewReader(reader).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// confirm returns nil when the user agrees or yes is already set.
func confirm(reader io.Reader, writer io.Writer, yes bool, prompt string) error {
	if yes {
		return nil
	}
	ok, err := PromptYesNo(reader, writer, prompt)
	if err != nil {
		return fmt.Errorf("could not read confirmation: %w", err)
	}
	if !ok {
		return fmt.Errorf("aborted by user")
	}
	return nil
}

func parseID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return uint(id), nil
}

func newTable(w io.Writer, headers ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderLine(true)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func when(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.Time(t)
}

// printUser displays a profile in YAML-like format for better readability
func printUser(w io.Writer, u models.UserData) {
	fmt.Fprintf(w, "username: %s\n", u.Username)
	fmt.Fprintf(w, "name: %s\n", u.Name)
	switch {
	case u.Superuser:
		fmt.Fprintln(w, "role: superuser")
	case u.Staff:
		fmt.Fprintln(w, "role: staff")
	default:
		fmt.Fprintln(w, "role: pioneer")
		fmt.Fprintf(w, "party: %d\n", u.Party)
		fmt.Fprintf(w, "grade: %d\n", u.Grade)
	}
	fmt.Fprintf(w, "balance: %s\n", models.FormatBucks(u.Balance))
	if u.Certificates != 0 {
		fmt.Fprintf(w, "certificates: %s\n", humanize.Ftoa(u.Certificates))
	}
	if !u.Staff && !u.Superuser {
		fmt.Fprintf(w, "expected_penalty: %s\n", models.FormatBucks(u.ExpectedPenalty))
		fmt.Fprintf(w, "next_missed_lecture: %s\n", models.FormatBucks(u.NextLecturePenalty))
	}
	if u.Badge != nil {
		fmt.Fprintf(w, "badge: %s\n", u.Badge.Name)
	}
	if u.Avatar != "" {
		fmt.Fprintf(w, "avatar: %s\n", u.Avatar)
	}
	if len(u.Counters) > 0 {
		fmt.Fprintln(w)
		table := newTable(w, "Counter", "Done", "Needed")
		for _, c := range u.Counters {
			table.Append([]string{c.CounterName, strconv.Itoa(c.Value), strconv.Itoa(c.MaxValue)})
		}
		table.Render()
	}
}

func printUsers(w io.Writer, users []models.UserListItem) {
	table := newTable(w, "Username", "Name", "Party", "Balance")
	for _, u := range users {
		party := strconv.Itoa(u.Party)
		if u.Staff {
			party = "staff"
		}
		table.Append([]string{u.Username, u.Name, party, models.FormatBucks(u.Balance)})
	}
	table.Render()
}

func printBadges(w io.Writer, badges []models.BadgeData) {
	table := newTable(w, "ID", "Name", "Description", "Image", "Active")
	for _, b := range badges {
		table.Append([]string{
			strconv.FormatUint(uint64(b.ID), 10),
			b.Name,
			b.Description,
			b.ImageFilename,
			strconv.FormatBool(b.IsActive),
		})
	}
	table.Render()
}

func printBadge(w io.Writer, b models.BadgeData) {
	fmt.Fprintf(w, "id: %d\n", b.ID)
	fmt.Fprintf(w, "name: %s\n", b.Name)
	if b.Description != "" {
		fmt.Fprintf(w, "description: %s\n", b.Description)
	}
	if b.ImageFilename != "" {
		fmt.Fprintf(w, "image: %s\n", b.ImageFilename)
	}
	fmt.Fprintf(w, "active: %t\n", b.IsActive)
}

func receiversSummary(t models.Transaction) string {
	parts := make([]string, 0, len(t.Receivers))
	for _, r := range t.Receivers {
		parts = append(parts, r.Username)
	}
	if len(parts) > 3 {
		return fmt.Sprintf("%s and %d more", strings.Join(parts[:3], ", "), len(parts)-3)
	}
	return strings.Join(parts, ", ")
}

func printTransactions(w io.Writer, txs []models.Transaction) {
	table := newTable(w, "ID", "Type", "Status", "Author", "Receivers", "Bucks", "Created")
	for _, t := range txs {
		table.Append([]string{
			strconv.FormatUint(uint64(t.ID), 10),
			t.Type.Label(),
			string(t.Status),
			t.Author,
			receiversSummary(t),
			models.FormatBucks(t.TotalBucks()),
			when(t.DateCreated),
		})
	}
	table.Render()
}

func printTransaction(w io.Writer, t models.Transaction) {
	fmt.Fprintf(w, "id: %d\n", t.ID)
	fmt.Fprintf(w, "type: %s (%s)\n", t.Type.Label(), t.Type)
	fmt.Fprintf(w, "status: %s\n", t.Status)
	fmt.Fprintf(w, "author: %s\n", t.Author)
	if t.Description != "" {
		fmt.Fprintf(w, "description: %s\n", t.Description)
	}
	if t.UpdateOf != nil {
		fmt.Fprintf(w, "updates: %d\n", *t.UpdateOf)
	}
	fmt.Fprintf(w, "created: %s\n", when(t.DateCreated))

	table := newTable(w, "Receiver", "Bucks", "Certs", "Lab", "Lec", "Sem", "Fac")
	for _, r := range t.Receivers {
		table.Append([]string{
			r.Username,
			models.FormatSignedBucks(r.Bucks),
			humanize.Ftoa(r.Certs),
			strconv.Itoa(r.Lab),
			strconv.Itoa(r.Lec),
			strconv.Itoa(r.Sem),
			strconv.Itoa(r.Fac),
		})
	}
	table.Render()
}

func printSeminars(w io.Writer, seminars []models.Seminar) {
	table := newTable(w, "ID", "Speaker", "Block", "Score", "Attendees", "Description")
	for _, s := range seminars {
		table.Append([]string{
			strconv.FormatUint(uint64(s.ID), 10),
			s.Speaker,
			s.Block,
			strconv.Itoa(s.TotalScore),
			strconv.Itoa(len(s.Attendees)),
			s.Description,
		})
	}
	table.Render()
}

func printSeminar(w io.Writer, s models.Seminar) {
	fmt.Fprintf(w, "id: %d\n", s.ID)
	fmt.Fprintf(w, "speaker: %s (%s)\n", s.SpeakerName, s.Speaker)
	fmt.Fprintf(w, "block: %s\n", s.Block)
	fmt.Fprintf(w, "description: %s\n", s.Description)
	fmt.Fprintf(w, "total_score: %d\n", s.TotalScore)
	fmt.Fprintln(w, "evaluation:")
	fields := s.Evaluation.Fields()
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %d\n", name, fields[name])
	}
	if len(s.Attendees) > 0 {
		fmt.Fprintf(w, "attendees: %s\n", strings.Join(s.Attendees, ", "))
	}
	if s.Author != "" {
		fmt.Fprintf(w, "author: %s\n", s.Author)
	}
}

func printImportResult(w io.Writer, r models.ImportResult) {
	fmt.Fprintln(w, r.Message)
	for _, u := range r.ImportedUsers {
		fmt.Fprintf(w, "  + %s\n", u)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  ! %s\n", e)
	}
}

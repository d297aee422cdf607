package sheetsclient

import (
	"fmt"
	"time"
)

// Column headers of a published day tab. Columns not listed here are left
// to the workshop; Notes is carried over between publishes by order id.
var dayHeader = []interface{}{
	"Mechanic", "Start", "End", "Minutes", "Car", "Registration", "Customer", "Description", "Order ID", "Notes",
}

const (
	orderIDColumn = "Order ID"
	notesColumn   = "Notes"
)

// PublishedDayRow is one appointment in a published day
type PublishedDayRow struct {
	Mechanic     string
	Start        string // "15:04"
	End          string
	Minutes      int
	Car          string
	Registration string
	Customer     string
	Description  string
	OrderID      string
}

// PublishedDay is the board of one day ready for publishing
type PublishedDay struct {
	Day  time.Time
	Rows []PublishedDayRow
}

// TabTitle returns the tab a day is published to, e.g. "Fri Mar 15 2024"
func TabTitle(day time.Time) string {
	return day.Format("Mon Jan 02 2006")
}

// PublishDay writes the day to its own tab, creating the tab on first
// publish. Republishing replaces every row but keeps the Notes typed in the
// sheet for orders that are still on the day.
func (c *Client) PublishDay(spreadsheetID string, day *PublishedDay) error {
	title := TabTitle(day.Day)

	exists, err := c.SheetExists(spreadsheetID, title)
	if err != nil {
		return err
	}

	var existing [][]interface{}
	if exists {
		existing, err = c.GetValues(spreadsheetID, fmt.Sprintf("%s!A1:ZZ", title))
		if err != nil {
			return fmt.Errorf("failed to read existing tab data: %w", err)
		}
		if err := c.ClearValues(spreadsheetID, fmt.Sprintf("%s!A1:ZZ", title)); err != nil {
			return fmt.Errorf("failed to clear existing tab: %w", err)
		}
	} else {
		if _, err := c.CreateSheet(spreadsheetID, title); err != nil {
			return fmt.Errorf("failed to create tab: %w", err)
		}
	}

	values := dayValues(day, existingNotes(existing))
	if err := c.WriteValues(spreadsheetID, fmt.Sprintf("%s!A1", title), values); err != nil {
		return fmt.Errorf("failed to write day tab: %w", err)
	}
	return nil
}

// dayValues lays out the header and one row per appointment
func dayValues(day *PublishedDay, notes map[string]interface{}) [][]interface{} {
	values := make([][]interface{}, 0, len(day.Rows)+1)
	values = append(values, dayHeader)

	for _, row := range day.Rows {
		note, ok := notes[row.OrderID]
		if !ok {
			note = ""
		}
		values = append(values, []interface{}{
			row.Mechanic, row.Start, row.End, row.Minutes, row.Car,
			row.Registration, row.Customer, row.Description, row.OrderID, note,
		})
	}
	return values
}

// existingNotes maps order id to the Notes cell of a previously published tab
func existingNotes(values [][]interface{}) map[string]interface{} {
	notes := make(map[string]interface{})
	if len(values) == 0 {
		return notes
	}

	header := values[0]
	idCol := findColumnIndex(header, orderIDColumn)
	notesCol := findColumnIndex(header, notesColumn)
	if idCol == -1 || notesCol == -1 {
		return notes
	}

	for _, row := range values[1:] {
		if idCol >= len(row) || notesCol >= len(row) {
			continue
		}
		id, ok := row[idCol].(string)
		if !ok || id == "" || row[notesCol] == "" {
			continue
		}
		notes[id] = row[notesCol]
	}
	return notes
}

// findColumnIndex finds the index of a column by its header name
func findColumnIndex(header []interface{}, columnName string) int {
	for i, cell := range header {
		if str, ok := cell.(string); ok && str == columnName {
			return i
		}
	}
	return -1
}

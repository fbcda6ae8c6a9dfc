package main

import (
	"fmt"
	"strings"

	"github.com/0xRadioAc7iv/go-contactfile/internal/record"
	"github.com/0xRadioAc7iv/go-contactfile/internal/utils"
)

var fieldCount = len(record.FieldNames)

// runCommandLine handles one typed command such as
//
//	find a@x.com
//	insert Ada Lovelace "" "12 St James's Square" London UK "" "" "" ada@x.com
func (m *menu) runCommandLine(line string) error {
	cmd, args, err := utils.SplitCommandLine(line)
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}

	switch cmd {
	case "help":
		fmt.Fprintln(m.out, strings.TrimSpace(helpString))
		return nil
	case "list":
		return m.list()
	case "find":
		if len(args) != 1 {
			return fmt.Errorf("usage: find <email>")
		}
		return m.doFind(args[0])
	case "delete":
		if len(args) != 1 {
			return fmt.Errorf("usage: delete <email>")
		}
		return m.doDelete(args[0])
	case "insert":
		if len(args) != fieldCount {
			return fmt.Errorf("usage: insert <%d fields>, got %d", fieldCount, len(args))
		}
		c, err := record.FromFields(args)
		if err != nil {
			return err
		}
		return m.doInsert(c)
	case "update":
		if len(args) != fieldCount+1 {
			return fmt.Errorf("usage: update <email> <%d fields>, got %d arguments", fieldCount, len(args))
		}
		c, err := record.FromFields(args[1:])
		if err != nil {
			return err
		}
		return m.doUpdate(args[0], c)
	default:
		fmt.Fprintln(m.out, "Invalid option. Please try again.")
		return nil
	}
}

const helpString = `
Available Commands:

find <email>
  Show the contact stored under the email.

insert <given> <family> <company> <address> <city> <country> <region> <phone1> <phone2> <email>
  Store a new contact. Quote fields that contain spaces, "" leaves a field empty.

update <email> <given> <family> <company> <address> <city> <country> <region> <phone1> <phone2> <new email>
  Replace the contact stored under the email.

delete <email>
  Remove the contact stored under the email.

list
  List all stored emails.

quit
  Leave the program.
`

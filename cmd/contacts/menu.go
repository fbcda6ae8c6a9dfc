package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/0xRadioAc7iv/go-contactfile/core"
	"github.com/0xRadioAc7iv/go-contactfile/internal/record"
	"github.com/0xRadioAc7iv/go-contactfile/internal/utils"
)

// contactStore is satisfied by both *core.Store and *contacts.Client.
type contactStore interface {
	Insert(c *core.Contact) error
	Find(key string) (*core.Contact, error)
	Update(key string, c *core.Contact) (bool, error)
	Delete(key string) (bool, error)
	Keys() ([]string, error)
}

type menu struct {
	store contactStore
	in    *bufio.Reader
	out   io.Writer
}

func newMenu(store contactStore, in io.Reader, out io.Writer) *menu {
	return &menu{store: store, in: bufio.NewReader(in), out: out}
}

// run shows the menu until the user quits or input ends. Store failures are
// reported and the loop goes on.
func (m *menu) run() error {
	for {
		m.printMenu()

		line, err := m.prompt("Select an option: ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		switch line {
		case "":
			continue
		case "1":
			err = m.insert()
		case "2":
			err = m.find()
		case "3":
			err = m.update()
		case "4":
			err = m.delete()
		case "5":
			err = m.list()
		case "6", "quit", "exit":
			fmt.Fprintln(m.out, "Exiting...")
			return nil
		default:
			err = m.runCommandLine(line)
		}

		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			fmt.Fprintln(m.out, "error:", err)
		}
	}
}

func (m *menu) printMenu() {
	fmt.Fprintln(m.out)
	fmt.Fprintln(m.out, "--- Contacts ---")
	fmt.Fprintln(m.out, "1. Insert a new contact")
	fmt.Fprintln(m.out, "2. Find a contact by email")
	fmt.Fprintln(m.out, "3. Update an existing contact")
	fmt.Fprintln(m.out, "4. Delete a contact")
	fmt.Fprintln(m.out, "5. List emails")
	fmt.Fprintln(m.out, "6. Quit")
	fmt.Fprintln(m.out, "Commands are accepted too, 'help' for the list.")
}

func (m *menu) prompt(label string) (string, error) {
	fmt.Fprint(m.out, label)

	line, err := m.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (m *menu) readContact() (*core.Contact, error) {
	fields := make([]string, len(record.FieldNames))
	for i, name := range record.FieldNames {
		v, err := m.prompt(name + ": ")
		if err != nil {
			return nil, err
		}
		fields[i] = v
	}
	return record.FromFields(fields)
}

func (m *menu) insert() error {
	fmt.Fprintln(m.out, "\n--- Insert a new contact ---")
	c, err := m.readContact()
	if err != nil {
		return err
	}
	return m.doInsert(c)
}

func (m *menu) find() error {
	fmt.Fprintln(m.out, "\n--- Find a contact by email ---")
	email, err := m.prompt("Email to look for: ")
	if err != nil {
		return err
	}
	return m.doFind(email)
}

func (m *menu) update() error {
	fmt.Fprintln(m.out, "\n--- Update an existing contact ---")
	email, err := m.prompt("Email of the contact to update: ")
	if err != nil {
		return err
	}

	existing, err := m.store.Find(email)
	if err != nil {
		return err
	}
	if existing == nil {
		fmt.Fprintln(m.out, "not found: no contact with that email.")
		return nil
	}

	fmt.Fprintln(m.out, "Enter the new data:")
	c, err := m.readContact()
	if err != nil {
		return err
	}
	return m.doUpdate(email, c)
}

func (m *menu) delete() error {
	fmt.Fprintln(m.out, "\n--- Delete a contact ---")
	email, err := m.prompt("Email of the contact to delete: ")
	if err != nil {
		return err
	}
	return m.doDelete(email)
}

func (m *menu) list() error {
	keys, err := m.store.Keys()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		fmt.Fprintln(m.out, "No contacts stored.")
		return nil
	}
	for _, k := range keys {
		fmt.Fprintln(m.out, k)
	}
	return nil
}

func (m *menu) doInsert(c *core.Contact) error {
	if err := m.store.Insert(c); err != nil {
		return err
	}
	fmt.Fprintln(m.out, "Contact inserted.")
	return nil
}

func (m *menu) doFind(email string) error {
	c, err := m.store.Find(email)
	if err != nil {
		return err
	}
	if c == nil {
		fmt.Fprintln(m.out, "not found: no contact with that email.")
		return nil
	}
	fmt.Fprintln(m.out, "found:")
	printContact(m.out, c)
	fmt.Fprintln(m.out, "as command:", insertCommand(c))
	return nil
}

func (m *menu) doUpdate(email string, c *core.Contact) error {
	found, err := m.store.Update(email, c)
	if err != nil {
		return err
	}
	if !found {
		fmt.Fprintln(m.out, "not found: no contact with that email.")
		return nil
	}
	fmt.Fprintln(m.out, "Contact updated.")
	return nil
}

func (m *menu) doDelete(email string) error {
	found, err := m.store.Delete(email)
	if err != nil {
		return err
	}
	if !found {
		fmt.Fprintln(m.out, "not found: no contact with that email.")
		return nil
	}
	fmt.Fprintln(m.out, "Contact deleted.")
	return nil
}

func printContact(w io.Writer, c *core.Contact) {
	for i, v := range c.Fields() {
		fmt.Fprintf(w, "  %-13s %s\n", record.FieldNames[i]+":", v)
	}
}

// insertCommand renders c as a one-line insert command that can be pasted back
// into the menu.
func insertCommand(c *core.Contact) string {
	return utils.JoinCommandLine(append([]string{"insert"}, c.Fields()...)...)
}

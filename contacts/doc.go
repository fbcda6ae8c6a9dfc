// Package contacts provides a client for a contact store daemon (contactsd)
// over TCP.
//
// Example:
//
//	client, err := contacts.Connect(contacts.WithPort(6969))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Insert(&contacts.Contact{GivenNames: "Ada", Email: "ada@example.com"})
//	c, err := client.Find("ada@example.com")
package contacts

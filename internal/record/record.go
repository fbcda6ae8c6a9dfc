package record

import (
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/fxamacker/cbor/v2"
)

// Contact is one fixed-schema contact record. Email is the record key.
type Contact struct {
	GivenNames  string
	FamilyNames string
	Company     string
	Address     string
	City        string
	Country     string
	Region      string
	Phone1      string
	Phone2      string
	Email       string
}

// Key returns the value the store indexes the contact under.
func (c *Contact) Key() string {
	return c.Email
}

// Fields returns the ten fields in their serialized order.
func (c *Contact) Fields() []string {
	return []string{
		c.GivenNames,
		c.FamilyNames,
		c.Company,
		c.Address,
		c.City,
		c.Country,
		c.Region,
		c.Phone1,
		c.Phone2,
		c.Email,
	}
}

// FieldNames lists the human readable names of the fields, in the order
// returned by Fields.
var FieldNames = []string{
	"Given names",
	"Family names",
	"Company",
	"Address",
	"City",
	"Country",
	"Region",
	"Phone 1",
	"Phone 2",
	"Email",
}

// FromFields builds a contact from values in Fields order.
func FromFields(fields []string) (*Contact, error) {
	if len(fields) != len(FieldNames) {
		return nil, fmt.Errorf("expected %d fields, got %d", len(FieldNames), len(fields))
	}
	return &Contact{
		GivenNames:  fields[0],
		FamilyNames: fields[1],
		Company:     fields[2],
		Address:     fields[3],
		City:        fields[4],
		Country:     fields[5],
		Region:      fields[6],
		Phone1:      fields[7],
		Phone2:      fields[8],
		Email:       fields[9],
	}, nil
}

// diskRecord is the on-disk shape of a contact: a CBOR array holding the
// ten fields followed by their checksum.
type diskRecord struct {
	_           struct{} `cbor:",toarray"`
	GivenNames  string
	FamilyNames string
	Company     string
	Address     string
	City        string
	Country     string
	Region      string
	Phone1      string
	Phone2      string
	Email       string
	CRC         uint32
}

const (
	// Marker is the first byte of every encoded record (CBOR array of 11).
	Marker byte = 0x8B

	// Padding fills bytes that no record owns any more.
	Padding byte = 0x00
)

var (
	ErrMalformed = errors.New("record: malformed encoding")
	ErrChecksum  = errors.New("record: checksum mismatch")
	ErrTruncated = errors.New("record: truncated encoding")
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}

	decMode, err = cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

// Encode serializes the contact. The encoding is deterministic: the same
// contact always produces the same bytes.
func Encode(c *Contact) ([]byte, error) {
	for i, f := range c.Fields() {
		if !utf8.ValidString(f) {
			return nil, fmt.Errorf("%w: field %q is not valid UTF-8", ErrMalformed, FieldNames[i])
		}
	}

	dr := diskRecord{
		GivenNames:  c.GivenNames,
		FamilyNames: c.FamilyNames,
		Company:     c.Company,
		Address:     c.Address,
		City:        c.City,
		Country:     c.Country,
		Region:      c.Region,
		Phone1:      c.Phone1,
		Phone2:      c.Phone2,
		Email:       c.Email,
		CRC:         CalculateCRC(c.Fields()...),
	}

	data, err := encMode.Marshal(&dr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return data, nil
}

// Decode deserializes exactly one record; data must not hold anything else.
func Decode(data []byte) (*Contact, error) {
	c, n, err := DecodeFirst(data)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(data)-n)
	}
	return c, nil
}

// DecodeFirst deserializes the record at the start of data and returns it
// together with the number of bytes it occupied. Empty data yields io.EOF;
// data that ends inside a record yields ErrTruncated.
func DecodeFirst(data []byte) (*Contact, int, error) {
	if len(data) == 0 {
		return nil, 0, io.EOF
	}
	if data[0] != Marker {
		return nil, 0, fmt.Errorf("%w: unexpected leading byte 0x%02x", ErrMalformed, data[0])
	}

	var dr diskRecord
	rest, err := decMode.UnmarshalFirst(data, &dr)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, 0, fmt.Errorf("%w: %w", ErrTruncated, err)
		}
		return nil, 0, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	c := &Contact{
		GivenNames:  dr.GivenNames,
		FamilyNames: dr.FamilyNames,
		Company:     dr.Company,
		Address:     dr.Address,
		City:        dr.City,
		Country:     dr.Country,
		Region:      dr.Region,
		Phone1:      dr.Phone1,
		Phone2:      dr.Phone2,
		Email:       dr.Email,
	}

	if !ValidateCRC(dr.CRC, c.Fields()...) {
		return nil, 0, fmt.Errorf("%w: key %q", ErrChecksum, c.Email)
	}

	return c, len(data) - len(rest), nil
}

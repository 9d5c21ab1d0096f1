// Package phonebook holds the contact wire types shared by the contact
// service (which serves them) and the report service (which consumes them).
package phonebook

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// InfoType classifies a contact info entry. The numeric values match the
// persisted column and the integer wire form.
type InfoType int

const (
	PhoneNumber InfoType = 0
	Email       InfoType = 1
	Location    InfoType = 2
)

var infoTypeNames = map[InfoType]string{
	PhoneNumber: "PhoneNumber",
	Email:       "Email",
	Location:    "Location",
}

func (t InfoType) String() string {
	if name, ok := infoTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("InfoType(%d)", int(t))
}

// Valid reports whether t is a known type.
func (t InfoType) Valid() bool {
	_, ok := infoTypeNames[t]
	return ok
}

// ParseInfoType accepts a type name, case-insensitively.
func ParseInfoType(name string) (InfoType, error) {
	for t, n := range infoTypeNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown info type %q", name)
}

// MarshalJSON writes the integer form.
func (t InfoType) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown info type %d", int(t))
	}
	return json.Marshal(int(t))
}

// UnmarshalJSON accepts either the integer or the name.
func (t *InfoType) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		if !InfoType(n).Valid() {
			return fmt.Errorf("unknown info type %d", n)
		}
		*t = InfoType(n)
		return nil
	}

	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("info type must be an integer or a name: %w", err)
	}
	parsed, err := ParseInfoType(name)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ContactInfo is one typed entry on a person.
type ContactInfo struct {
	ID          uuid.UUID `json:"Id"`
	InfoType    InfoType  `json:"InfoType" validate:"gte=0,lte=2"`
	InfoContent string    `json:"InfoContent" validate:"required,max=500"`
}

// Person is a phonebook entry with its contact infos.
type Person struct {
	ID           uuid.UUID     `json:"Id"`
	FirstName    string        `json:"FirstName" validate:"required,max=100"`
	LastName     string        `json:"LastName" validate:"required,max=100"`
	Company      string        `json:"Company" validate:"max=200"`
	ContactInfos []ContactInfo `json:"ContactInfos" validate:"dive"`
}

// CountPhoneNumbers counts PhoneNumber entries across people.
func CountPhoneNumbers(people []Person) int {
	n := 0
	for _, p := range people {
		for _, info := range p.ContactInfos {
			if info.InfoType == PhoneNumber {
				n++
			}
		}
	}
	return n
}

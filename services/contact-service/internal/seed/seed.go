// Package seed generates sample contacts for local runs and demos.
package seed

import (
	"fmt"
	"math/rand/v2"

	"github.com/ugurcanyksl/PhoneBookApp/pkg/phonebook"

	"github.com/google/uuid"
)

// DefaultLocations are the cities generated contacts live in.
var DefaultLocations = []string{"Istanbul", "Ankara", "Izmir", "Bursa", "Antalya"}

var (
	firstNames = []string{"Ada", "Alan", "Grace", "Linus", "Ken", "Barbara", "Dennis", "Margaret", "Edsger", "Frances"}
	lastNames  = []string{"Lovelace", "Turing", "Hopper", "Torvalds", "Thompson", "Liskov", "Ritchie", "Hamilton", "Dijkstra", "Allen"}
	companies  = []string{"", "Acme", "Initech", "Globex", "Umbrella", "Hooli"}
)

// Contacts generates n people. Each has 0-3 phone numbers, at most one
// email and exactly one location drawn from locations.
func Contacts(rng *rand.Rand, n int, locations []string) []phonebook.Person {
	if len(locations) == 0 {
		locations = DefaultLocations
	}

	people := make([]phonebook.Person, 0, n)
	for i := 0; i < n; i++ {
		p := phonebook.Person{
			ID:           uuid.New(),
			FirstName:    firstNames[rng.IntN(len(firstNames))],
			LastName:     lastNames[rng.IntN(len(lastNames))],
			Company:      companies[rng.IntN(len(companies))],
			ContactInfos: []phonebook.ContactInfo{},
		}

		for j := rng.IntN(4); j > 0; j-- {
			p.ContactInfos = append(p.ContactInfos, phonebook.ContactInfo{
				ID:          uuid.New(),
				InfoType:    phonebook.PhoneNumber,
				InfoContent: fmt.Sprintf("+90 5%02d %03d %04d", rng.IntN(100), rng.IntN(1000), rng.IntN(10000)),
			})
		}
		if rng.IntN(2) == 0 {
			p.ContactInfos = append(p.ContactInfos, phonebook.ContactInfo{
				ID:          uuid.New(),
				InfoType:    phonebook.Email,
				InfoContent: fmt.Sprintf("contact-%04d@example.com", i+1),
			})
		}
		p.ContactInfos = append(p.ContactInfos, phonebook.ContactInfo{
			ID:          uuid.New(),
			InfoType:    phonebook.Location,
			InfoContent: locations[rng.IntN(len(locations))],
		})

		people = append(people, p)
	}
	return people
}

// Summary is the expected report for one location of a generated set.
type Summary struct {
	Contacts     int
	PhoneNumbers int
}

// Summarize groups people by location the way the report aggregator does.
func Summarize(people []phonebook.Person) map[string]Summary {
	out := make(map[string]Summary)
	for _, p := range people {
		for _, info := range p.ContactInfos {
			if info.InfoType != phonebook.Location {
				continue
			}
			s := out[info.InfoContent]
			s.Contacts++
			s.PhoneNumbers += phonebook.CountPhoneNumbers([]phonebook.Person{p})
			out[info.InfoContent] = s
		}
	}
	return out
}

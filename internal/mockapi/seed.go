package mockapi

import (
	"fmt"

	"github.com/google/uuid"
)

var seedPatients = []struct {
	first, last, city string
}{
	{"John", "Doe", "Paris"},
	{"Jane", "Doe", "Paris"},
	{"Alice", "Martin", "Lyon"},
	{"Bruno", "Bernard", "Vitry-sur-Seine"},
	{"Chloe", "Dubois", "Rueil-Malmaison"},
	{"David", "Thomas", "Lille"},
	{"Emma", "Robert", "Nantes"},
	{"Felix", "Richard", "Rennes"},
	{"Gabrielle", "Petit", "Nice"},
	{"Hugo", "Durand", "Bordeaux"},
	{"Ines", "Leroy", "Toulouse"},
	{"Jules", "Moreau", "Paris"},
	{"Lea", "Simon", "Marseille"},
	{"Mathis", "Laurent", "Lyon"},
	{"Nina", "Lefebvre", "Paris"},
	{"Oscar", "Michel", "Strasbourg"},
	{"Paul", "Garcia", "Montpellier"},
	{"Rose", "David", "Grenoble"},
	{"Sacha", "Bertrand", "Dijon"},
	{"Tom", "Roux", "Paris"},
	{"Zoe", "Vincent", "Reims"},
	{"Maxime", "Doe", "Vitry-sur-Seine"},
	{"Louise", "Fournier", "Angers"},
}

func (s *Server) seed() {
	practitioner := &user{
		ID:                s.newIDLocked(),
		PID:               uuid.NewString(),
		Email:             SeedEmail,
		Password:          SeedPassword,
		FirstName:         "Jane",
		LastName:          "Doe",
		PhoneNumber:       "+33600000000",
		AccessKeyVerified: true,
	}
	s.users[practitioner.Email] = practitioner
	locked := &user{
		ID:        s.newIDLocked(),
		PID:       uuid.NewString(),
		Email:     LockedEmail,
		Password:  LockedPassword,
		FirstName: "John",
		LastName:  "Roe",
		AccessKey: LockedAccessKey,
	}
	s.users[locked.Email] = locked

	var officeNames []string
	for _, o := range []office{
		{Name: "RueilMalmaison", AddressLine1: "12 rue de Paris", AddressZipCode: "92500", AddressCity: "Rueil-Malmaison"},
		{Name: "VitrySurSeine", AddressLine1: "3 avenue Rouget de Lisle", AddressZipCode: "94400", AddressCity: "Vitry-sur-Seine"},
	} {
		o := o
		o.ID = s.newIDLocked()
		o.UserID = practitioner.ID
		s.offices[o.ID] = &o
		officeNames = append(officeNames, o.Name)
	}

	for i, p := range seedPatients {
		officeName := officeNames[i%len(officeNames)]
		id := s.newIDLocked()
		s.patients[id] = &patient{
			ID:             id,
			FirstName:      p.first,
			LastName:       p.last,
			SSN:            fmt.Sprintf("1%02d%02d75%03d%03d%02d", 80+i%20, 1+i%12, 100+i, 200+i, 10+i),
			AddressLine1:   fmt.Sprintf("%d rue de la Paix", i+1),
			AddressZipCode: "75002",
			AddressCity:    p.city,
			AddressCountry: "France",
			Office:         &officeName,
			Email:          "default@mail.com",
			UserID:         practitioner.ID,
		}
	}
}

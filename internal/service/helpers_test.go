package service

import (
	"database/sql"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"crewops/internal/model"
)

var (
	errNoRows = sql.ErrNoRows
	admin     = model.Actor{ID: "admin-1", Role: model.RoleAdmin}
	shipowner = model.Actor{ID: "owner-1", Role: model.RoleShipowner}
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func oneOffSpec(start time.Time) model.ContractSpec {
	return model.ContractSpec{
		Kind:               model.KindOneOff,
		Vessel:             model.Vessel{Name: "MV Aurora", IMONumber: "9312345"},
		StartDate:          &start,
		DurationDays:       60,
		JoiningPort:        "Rotterdam",
		DisembarkationPort: "Singapore",
		Positions: []model.Position{{
			Rank: "2nd Engineer", Quantity: 1, MinExperienceYears: 3,
			NationalityPreference: "Any", RequiredCertifications: []string{"STCW", "ERS"},
		}},
	}
}

func fullCrewSpec(start time.Time, days int) model.ContractSpec {
	return model.ContractSpec{
		Kind:         model.KindFullCrew,
		Vessel:       model.Vessel{Name: "MV Borealis"},
		StartDate:    &start,
		DurationDays: days,
		Positions:    []model.Position{{Rank: "Master", Quantity: 1}, {Rank: "AB", Quantity: 4}},
	}
}

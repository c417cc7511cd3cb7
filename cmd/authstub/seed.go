package main

import (
	"context"

	"github.com/spec-kit/freeler-client/internal/auth"
	"github.com/spec-kit/freeler-client/internal/domain"
	"github.com/spec-kit/freeler-client/internal/repository"
)

const (
	demoPassword  = "freeler-demo"
	demoCompanyID = "1"
)

// demoStaff covers every canonical role plus legacy, localised and unmapped labels.
var demoStaff = []struct{ email, name, label string }{
	{"admin@crm.test", "Ana Admin", "ADMINISTRADOR"},
	{"super@crm.test", "Sergio Super", "SUPERADMIN"},
	{"ventas@crm.test", "Valeria Ventas", "vendedor"},
	{"analista@crm.test", "Andrés Analista", "Analítica"},
	{"contador@crm.test", "Carlos Contador", "CONTADOR"},
}

var demoPersons = []domain.Person{
	{NationalID: "12345678", Names: "María José", LastNames: "Pérez Gómez"},
	{NationalID: "87654321", Names: "Juan Carlos", LastNames: "Rodríguez"},
	{NationalID: "1020304050", Names: "Lucía", LastNames: "Fernández Ortiz"},
}

func seedDemo(mem *repository.Memory, cost int) error {
	hash, err := auth.NewHasher(cost).Hash(demoPassword)
	if err != nil {
		return err
	}

	for _, s := range demoStaff {
		mem.AddStaff(domain.StaffMember{
			CompanyID:    demoCompanyID,
			Name:         s.name,
			Email:        s.email,
			PasswordHash: hash,
			RoleLabel:    s.label,
			Active:       true,
		})
	}
	for _, p := range demoPersons {
		mem.AddPerson(p)
	}

	return mem.Agents().Create(context.Background(), &domain.ReferralAgent{
		Name:         "Fernanda Freeler",
		Email:        "freeler@agents.test",
		NationalID:   "12345678",
		PasswordHash: hash,
		Status:       domain.AccountStatusActive,
	})
}

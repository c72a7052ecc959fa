package employee

import (
	"context"

	"go-ees/internal/validation"
)

const (
	nameTag     = "notblank,max=50"
	emailTag    = "notblank,email,emaildomain"
	jobTitleTag = "notblank,max=100"
	hireDateTag = "required,notfuture"
	idTag       = "gt=0"

	hireDateFormatMessage = "must be a date in YYYY-MM-DD or RFC 3339 format"
)

// RegisterRules adds the employee rule sets to the stage. Create is checked
// for profile and employment data, Update for identity and profile data.
func RegisterRules(s *validation.Stage) {
	validation.AddRules(s,
		createProfileRules(s),
		createEmploymentRules(s),
	)
	validation.AddRules(s,
		updateIdentityRules(s),
		updateProfileRules(s),
	)
}

func createProfileRules(s *validation.Stage) validation.RuleSet[CreateEmployeeCommand] {
	return func(ctx context.Context, cmd CreateEmployeeCommand) []validation.Failure {
		return s.Fields(ctx,
			validation.Field("firstName", cmd.FirstName, nameTag),
			validation.Field("lastName", cmd.LastName, nameTag),
			validation.Field("email", cmd.Email, emailTag),
			validation.Field("jobTitle", cmd.JobTitle, jobTitleTag),
		)
	}
}

func createEmploymentRules(s *validation.Stage) validation.RuleSet[CreateEmployeeCommand] {
	return func(ctx context.Context, cmd CreateEmployeeCommand) []validation.Failure {
		if cmd.HireDateUnparsable {
			return []validation.Failure{{Field: "hireDate", Message: hireDateFormatMessage}}
		}
		return s.Fields(ctx,
			validation.Field("hireDate", cmd.HireDate, hireDateTag),
		)
	}
}

func updateIdentityRules(s *validation.Stage) validation.RuleSet[UpdateEmployeeCommand] {
	return func(ctx context.Context, cmd UpdateEmployeeCommand) []validation.Failure {
		return s.Fields(ctx,
			validation.Field("id", cmd.ID, idTag),
		)
	}
}

func updateProfileRules(s *validation.Stage) validation.RuleSet[UpdateEmployeeCommand] {
	return func(ctx context.Context, cmd UpdateEmployeeCommand) []validation.Failure {
		return s.Fields(ctx,
			validation.Field("firstName", cmd.FirstName, nameTag),
			validation.Field("lastName", cmd.LastName, nameTag),
			validation.Field("jobTitle", cmd.JobTitle, jobTitleTag),
		)
	}
}

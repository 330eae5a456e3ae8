package http

import "github.com/khoahotran/devprofile/internal/validation"

const msgFromDate = "From date is required and needs to be from the past"

var (
	UpsertProfileRules = []validation.Rule{
		validation.Required("status", "Status is required"),
		validation.StringList("skills", "Skills is required"),
	}

	ExperienceRules = []validation.Rule{
		validation.Required("title", "Title is required"),
		validation.Required("company", "Company is required"),
		validation.Required("from", msgFromDate),
		validation.Date("from", msgFromDate),
		validation.DateOrder("from", "to", msgFromDate),
		validation.Date("to", "To date is invalid"),
	}

	EducationRules = []validation.Rule{
		validation.Required("school", "School is required"),
		validation.Required("degree", "Degree is required"),
		validation.Required("fieldofstudy", "Field of study is required"),
		validation.Required("from", msgFromDate),
		validation.Date("from", msgFromDate),
		validation.DateOrder("from", "to", msgFromDate),
		validation.Date("to", "To date is invalid"),
	}

	RegisterRules = []validation.Rule{
		validation.Required("name", "Name is required"),
		validation.Email("email", "Please include a valid email"),
		validation.MinLength("password", 6, "Please enter a password with 6 or more characters"),
	}

	LoginRules = []validation.Rule{
		validation.Email("email", "Please include a valid email"),
		validation.Required("password", "Password is required"),
	}
)

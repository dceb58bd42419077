package api

import "talent-crm/internal/common/validation"

const dateSchema = `{"type": "string", "pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"}`

var feedbackSchema = validation.MustCompile(`{
	"type": "object",
	"properties": {
		"feedback":            {"type": "string", "minLength": 1, "maxLength": 4000},
		"statusLabel":         {"type": "string", "maxLength": 120},
		"nextFollowUpDate":    ` + dateSchema + `,
		"joiningDate":         ` + dateSchema + `,
		"interviewDate":       ` + dateSchema + `,
		"callStatus":          {"type": "string", "maxLength": 120},
		"remarks":             {"type": "string", "maxLength": 2000},
		"enteredBy":           {"type": "string", "minLength": 1, "maxLength": 120},
		"submissionFlag":      {"type": "boolean"},
		"submissionDate":      ` + dateSchema + `,
		"entryIndex":          {"type": "integer", "minimum": 0}
	},
	"required": ["feedback", "enteredBy"],
	"additionalProperties": false
}`)

var claimSchema = validation.MustCompile(`{
	"type": "object",
	"properties": {
		"claimantCode":     {"type": "string", "minLength": 1, "maxLength": 60},
		"feedback":         {"type": "string", "maxLength": 4000},
		"nextFollowUpDate": ` + dateSchema + `
	},
	"required": ["claimantCode"],
	"additionalProperties": false
}`)

var assignSchema = validation.MustCompile(`{
	"type": "object",
	"properties": {
		"newOwnerCode":     {"type": "string", "minLength": 1, "maxLength": 60},
		"assignedByCode":   {"type": "string", "minLength": 1, "maxLength": 60},
		"feedback":         {"type": "string", "maxLength": 4000},
		"nextFollowUpDate": ` + dateSchema + `,
		"notes":            {"type": "string", "maxLength": 2000},
		"override":         {"type": "boolean"}
	},
	"required": ["newOwnerCode", "assignedByCode"],
	"additionalProperties": false
}`)

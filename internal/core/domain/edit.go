package domain

// EditState is the lifecycle state of a profile edit.
type EditState string

const (
	EditClosed     EditState = "closed"
	EditOpen       EditState = "open"
	EditSubmitting EditState = "submitting"
)

// validEditTransitions defines the allowed edit state machine transitions.
var validEditTransitions = map[EditState][]EditState{
	EditClosed:     {EditOpen},
	EditOpen:       {EditClosed, EditSubmitting},
	EditSubmitting: {EditClosed, EditOpen},
}

// CanTransitionTo reports whether an edit may move from s to next.
func (s EditState) CanTransitionTo(next EditState) bool {
	for _, allowed := range validEditTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// EditDraft is the unsaved copy of a profile's editable fields.
type EditDraft struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// NewEditDraft initialises a draft from p, using empty strings for absent
// names.
func NewEditDraft(p *Profile) EditDraft {
	return EditDraft{
		FirstName: stringOrEmpty(p.FirstName),
		LastName:  stringOrEmpty(p.LastName),
	}
}

// Set assigns value to field.
func (d *EditDraft) Set(field ProfileField, value string) error {
	switch field {
	case FieldFirstName:
		d.FirstName = value
	case FieldLastName:
		d.LastName = value
	case FieldEmail:
		return ErrReadOnlyField
	default:
		return ErrUnknownField
	}
	return nil
}

// Patch builds the write for this draft against the profile it was opened
// from. The write is conditional on base still being the stored version.
func (d EditDraft) Patch(base *Profile) ProfilePatch {
	first, last := d.FirstName, d.LastName
	return ProfilePatch{
		FirstName:         &first,
		LastName:          &last,
		IfUnmodifiedSince: base.UpdatedAt,
	}
}

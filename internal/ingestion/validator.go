package ingestion

// Validator performs semantic validation of incoming Events.
type Validator struct{}

// NewValidator creates a new Validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateEvent validates that an Event contains the fields required to
// compute its identity and be committed to the dedup store.
//
// Required fields:
//   - topic: must not be empty
//   - event_id: must not be empty
//   - timestamp: must not be empty
//   - source: must not be empty
//
// Payload is not checked: a request that omits it or sends null decodes to
// a nil map and is accepted, and any JSON object (including an empty one)
// is stored verbatim.
func (v *Validator) ValidateEvent(event *Event) error {
	if event == nil {
		return ErrNilEvent
	}

	if event.Topic == "" {
		return ErrMissingTopic
	}

	if event.ID == "" {
		return ErrMissingEventID
	}

	if event.Timestamp == "" {
		return ErrMissingTimestamp
	}

	if event.Source == "" {
		return ErrMissingSource
	}

	return nil
}

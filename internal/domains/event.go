package domains

// OriginKind tags the provenance of a bound-tightening event.
type OriginKind uint8

const (
	// Decision marks a literal asserted by the search controller.
	Decision OriginKind = iota
	// EncodingOrigin marks a root-level fact asserted while building the model.
	EncodingOrigin
	// ExternalInference marks an inference made by a reasoner (SAT, STN, EQ, CP).
	ExternalInference
	// ImplicationPropagation marks an inference made by following the
	// Domains' own non-optional implication graph.
	ImplicationPropagation
	// PresenceOfEmptyDomain marks an absence inference that replaced what
	// would otherwise have been an invalid update on an optional variable.
	PresenceOfEmptyDomain
)

// Origin records why a bound was tightened.
type Origin struct {
	Kind OriginKind

	// ExternalInference fields.
	ReasonerID int
	Payload    uint32

	// ImplicationPropagation field: the literal whose truth implied this one.
	ImpliedBy Lit

	// PresenceOfEmptyDomain fields: the literal whose tightening would have
	// emptied the domain, and the origin of the update that was attempted.
	OffendingLit Lit
	Inner        *Origin
}

// DecisionOrigin builds a Decision origin.
func DecisionOrigin() Origin { return Origin{Kind: Decision} }

// EncodingOriginValue builds an EncodingOrigin origin.
func EncodingOriginValue() Origin { return Origin{Kind: EncodingOrigin} }

// FromReasoner builds an ExternalInference origin.
func FromReasoner(reasonerID int, payload uint32) Origin {
	return Origin{Kind: ExternalInference, ReasonerID: reasonerID, Payload: payload}
}

// FromImplication builds an ImplicationPropagation origin.
func FromImplication(by Lit) Origin {
	return Origin{Kind: ImplicationPropagation, ImpliedBy: by}
}

// FromEmptyDomain wraps origin as the cause of an auto-absence inference.
func FromEmptyDomain(offending Lit, inner Origin) Origin {
	return Origin{Kind: PresenceOfEmptyDomain, OffendingLit: offending, Inner: &inner}
}

// Event is an immutable record appended to the trail whenever a bound
// tightens.
type Event struct {
	Affected SVar
	New      UB
	Previous UB
	// PrevEventIndex points at the event, if any, that last set Affected's
	// bound before this one (-1 if none: the bound held since the root).
	PrevEventIndex int
	Cause          Origin
}

package av

// Reason is a stable short diagnostic token attached to an overdefined
// Val, consumable by tests. Reasons never change the soundness of the
// result — they exist purely so test harnesses and future diagnostics
// can assert on *why* a value lost precision.
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonNonConstBOps      Reason = "NonConstBOps"
	ReasonRDFG              Reason = "RDFG"
	ReasonPP2               Reason = "PP2"
	ReasonConstOOR          Reason = "ConstOOR"
	ReasonConstRDFGFailed   Reason = "ConstRDFGFailed"
	ReasonCastNonZeroToPtr  Reason = "CastNonZeroToPtr"
	ReasonNonScalarCoerce   Reason = "NonScalarCoerce"
	ReasonLoadVague         Reason = "LoadVague"
	ReasonPVToPB            Reason = "PVToPB"
	ReasonWidened           Reason = "Widened"           // member-set exceeded KMax
	ReasonMixedClasses      Reason = "MixedClasses"       // merge saw incompatible classes
	ReasonUnboundedSize     Reason = "UnboundedSize"      // memcpy/memset/malloc with non-const size
	ReasonOpaqueCall        Reason = "OpaqueCall"         // call to an unmodelled, uninlined function
)

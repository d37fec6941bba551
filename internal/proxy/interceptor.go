package proxy

// RewriteStrategy selects how a response referencing the shadow view is
// translated back toward the user.
type RewriteStrategy int

const (
	// StrategyPassthrough leaves the response untouched apart from
	// correlation bookkeeping. Hover text, completion items and the
	// like carry no document identity worth rewriting.
	StrategyPassthrough RewriteStrategy = iota

	// StrategyDirect points results at the human view itself. Used for
	// single-target navigation where the user lands in the notebook.
	StrategyDirect

	// StrategyIndirect points results at the read-only preview
	// identity. Used for list results where jumping the notebook to
	// every entry would be hostile.
	StrategyIndirect
)

// RequestClass groups interactive requests for last-request-wins
// supersession: issuing a new request of a class makes any in-flight
// reply of the same class stale.
type RequestClass int

const (
	ClassNone RequestClass = iota
	ClassCompletion
	ClassHover
	ClassSignature
	ClassHighlight
)

// methodSpec describes how the proxy treats one protocol method.
type methodSpec struct {
	strategy RewriteStrategy
	class    RequestClass
}

var methodSpecs = map[string]methodSpec{
	MethodDefinition:        {strategy: StrategyDirect},
	MethodDeclaration:       {strategy: StrategyDirect},
	MethodTypeDefinition:    {strategy: StrategyDirect},
	MethodImplementation:    {strategy: StrategyDirect},
	MethodReferences:        {strategy: StrategyIndirect},
	MethodCompletion:        {strategy: StrategyPassthrough, class: ClassCompletion},
	MethodHover:             {strategy: StrategyPassthrough, class: ClassHover},
	MethodSignatureHelp:     {strategy: StrategyPassthrough, class: ClassSignature},
	MethodDocumentHighlight: {strategy: StrategyPassthrough, class: ClassHighlight},
}

// specFor returns the handling spec for a method. Unknown methods pass
// through so new protocol surface degrades gracefully.
func specFor(method string) methodSpec {
	if s, ok := methodSpecs[method]; ok {
		return s
	}
	return methodSpec{strategy: StrategyPassthrough}
}

package http

// URL parameter names shared by the router and the handlers.
const (
	IDParam              = "id"
	PartyIDTypeParam     = "partyIdType"
	PartyIdentifierParam = "partyIdentifier"
	LpsKeyParam          = "lpsKey"
	PayerIdentifierParam = "payerIdentifier"

	IDTypeQuery = "idType"
	StateQuery  = "state"
)

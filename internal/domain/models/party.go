package models

const (
	PartyTypePayer = "payer"
	PartyTypePayee = "payee"
)

// PartyIdInfo identifies a party on the scheme. The payer is carried in this flat shape.
type PartyIdInfo struct {
	PartyIdType      string `json:"partyIdType"`
	PartyIdentifier  string `json:"partyIdentifier"`
	PartySubIdOrType string `json:"partySubIdOrType,omitempty"`
	FspID            string `json:"fspId,omitempty"`
}

// Party is the nested shape the scheme uses for the payee.
type Party struct {
	PartyIdInfo PartyIdInfo `json:"partyIdInfo"`
	Name        string      `json:"name,omitempty"`
}

// TransactionParty is the stored form of either party of a transaction.
type TransactionParty struct {
	TransactionRequestID string `db:"transaction_request_id"`
	Type                 string `db:"type"`
	FspID                string `db:"fsp_id"`
	IdentifierType       string `db:"identifier_type"`
	IdentifierValue      string `db:"identifier_value"`
	SubIdOrType          string `db:"sub_id_or_type"`
	Name                 string `db:"name"`
}

func PartyFromIdInfo(transactionRequestID, partyType string, info PartyIdInfo) TransactionParty {
	return TransactionParty{
		TransactionRequestID: transactionRequestID,
		Type:                 partyType,
		FspID:                info.FspID,
		IdentifierType:       info.PartyIdType,
		IdentifierValue:      info.PartyIdentifier,
		SubIdOrType:          info.PartySubIdOrType,
	}
}

// PayeeFromParty returns the stored form of a nested payee.
func PayeeFromParty(transactionRequestID string, payee Party) TransactionParty {
	p := PartyFromIdInfo(transactionRequestID, PartyTypePayee, payee.PartyIdInfo)
	p.Name = payee.Name
	return p
}

func (p TransactionParty) AsParty() Party {
	return Party{PartyIdInfo: p.IdInfo(), Name: p.Name}
}

func (p TransactionParty) IdInfo() PartyIdInfo {
	return PartyIdInfo{
		PartyIdType:      p.IdentifierType,
		PartyIdentifier:  p.IdentifierValue,
		PartySubIdOrType: p.SubIdOrType,
		FspID:            p.FspID,
	}
}

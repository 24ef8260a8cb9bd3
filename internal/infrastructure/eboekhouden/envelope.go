package eboekhouden

import "encoding/xml"

// SOAP 1.1 envelope types for the e-Boekhouden soap.asmx endpoint.
// All operations live in the http://www.e-boekhouden.nl/soap namespace.

const soapNS = "http://www.e-boekhouden.nl/soap"

type requestEnvelope struct {
	XMLName xml.Name `xml:"soap:Envelope"`
	XMLNSs  string   `xml:"xmlns:soap,attr"`
	XMLNSd  string   `xml:"xmlns,attr"`
	Body    requestBody
}

type requestBody struct {
	XMLName xml.Name `xml:"soap:Body"`
	Payload any
}

func newEnvelope(payload any) requestEnvelope {
	return requestEnvelope{
		XMLNSs: "http://schemas.xmlsoap.org/soap/envelope/",
		XMLNSd: soapNS,
		Body:   requestBody{Payload: payload},
	}
}

// --- Requests ---

type openSessionRequest struct {
	XMLName       xml.Name `xml:"OpenSession"`
	Username      string   `xml:"Username"`
	SecurityCode1 string   `xml:"SecurityCode1"`
	SecurityCode2 string   `xml:"SecurityCode2"`
}

type closeSessionRequest struct {
	XMLName   xml.Name `xml:"CloseSession"`
	SessionID string   `xml:"SessionID"`
}

type addRelatieRequest struct {
	XMLName       xml.Name `xml:"AddRelatie"`
	SessionID     string   `xml:"SessionID"`
	SecurityCode2 string   `xml:"SecurityCode2"`
	Relatie       wireRelatie
}

type wireRelatie struct {
	XMLName        xml.Name `xml:"oRel"`
	ID             int64    `xml:"ID"`
	AddDatum       string   `xml:"AddDatum"`
	Code           string   `xml:"Code"`
	Bedrijf        string   `xml:"Bedrijf"`
	Contactpersoon string   `xml:"Contactpersoon"`
	Email          string   `xml:"Email"`
	BP             string   `xml:"BP"`
}

type addMutatieRequest struct {
	XMLName       xml.Name `xml:"AddMutatie"`
	SessionID     string   `xml:"SessionID"`
	SecurityCode2 string   `xml:"SecurityCode2"`
	Mutatie       wireMutatie
}

type wireMutatie struct {
	XMLName       xml.Name `xml:"oMut"`
	Soort         string   `xml:"Soort"`
	Datum         string   `xml:"Datum"`
	Rekening      string   `xml:"Rekening"`
	RelatieCode   string   `xml:"RelatieCode"`
	Factuurnummer string   `xml:"Factuurnummer"`
	Omschrijving  string   `xml:"Omschrijving"`
	InExBTW       string   `xml:"InExBTW"`
	MutatieRegels wireMutatieRegels
}

type wireMutatieRegels struct {
	XMLName xml.Name           `xml:"MutatieRegels"`
	Regels  []wireMutatieRegel `xml:"cMutatieRegel"`
}

type wireMutatieRegel struct {
	BedragInvoer      string `xml:"BedragInvoer"`
	BedragExclBTW     string `xml:"BedragExclBTW"`
	BedragBTW         string `xml:"BedragBTW"`
	BedragInclBTW     string `xml:"BedragInclBTW"`
	BTWCode           string `xml:"BTWCode"`
	BTWPercentage     string `xml:"BTWPercentage"`
	TegenrekeningCode string `xml:"TegenrekeningCode"`
}

type getGrootboekrekeningenRequest struct {
	XMLName       xml.Name `xml:"GetGrootboekrekeningen"`
	SessionID     string   `xml:"SessionID"`
	SecurityCode2 string   `xml:"SecurityCode2"`
	Filter        struct {
		ID        string `xml:"ID"`
		Code      string `xml:"Code"`
		Categorie string `xml:"Categorie"`
	} `xml:"cFilter"`
}

type getRelatiesRequest struct {
	XMLName       xml.Name `xml:"GetRelaties"`
	SessionID     string   `xml:"SessionID"`
	SecurityCode2 string   `xml:"SecurityCode2"`
	Filter        struct {
		Trefwoord string `xml:"Trefwoord"`
		Code      string `xml:"Code"`
		ID        string `xml:"ID"`
	} `xml:"cFilter"`
}

type getArtikelenRequest struct {
	XMLName       xml.Name `xml:"GetArtikelen"`
	SessionID     string   `xml:"SessionID"`
	SecurityCode2 string   `xml:"SecurityCode2"`
	Filter        struct {
		ArtikelID           string `xml:"ArtikelID"`
		ArtikelOmschrijving string `xml:"ArtikelOmschrijving"`
		ArtikelCode         string `xml:"ArtikelCode"`
	} `xml:"cFilter"`
}

// --- Responses ---

// responseEnvelope is decoded leniently: each operation picks out its result
// element by name.
type responseEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		OpenSessionResponse *struct {
			Result sessionResult `xml:"OpenSessionResult"`
		} `xml:"OpenSessionResponse"`
		CloseSessionResponse *struct{} `xml:"CloseSessionResponse"`
		AddRelatieResponse   *struct {
			Result idResult `xml:"AddRelatieResult"`
		} `xml:"AddRelatieResponse"`
		AddMutatieResponse *struct {
			Result mutatieResult `xml:"AddMutatieResult"`
		} `xml:"AddMutatieResponse"`
		GetGrootboekrekeningenResponse *struct {
			Result ledgerListResult `xml:"GetGrootboekrekeningenResult"`
		} `xml:"GetGrootboekrekeningenResponse"`
		GetRelatiesResponse *struct {
			Result relatieListResult `xml:"GetRelatiesResult"`
		} `xml:"GetRelatiesResponse"`
		GetArtikelenResponse *struct {
			Result artikelListResult `xml:"GetArtikelenResult"`
		} `xml:"GetArtikelenResponse"`
		Fault *soapFault `xml:"Fault"`
	} `xml:"Body"`
}

type soapFault struct {
	FaultCode   string `xml:"faultcode"`
	FaultString string `xml:"faultstring"`
}

type errorMsg struct {
	LastErrorCode        string `xml:"LastErrorCode"`
	LastErrorDescription string `xml:"LastErrorDescription"`
}

func (e errorMsg) isError() bool { return e.LastErrorCode != "" }

type sessionResult struct {
	ErrorMsg  errorMsg `xml:"ErrorMsg"`
	SessionID string   `xml:"SessionID"`
}

type idResult struct {
	ErrorMsg errorMsg `xml:"ErrorMsg"`
	RelID    int64    `xml:"Rel_ID"`
}

type mutatieResult struct {
	ErrorMsg      errorMsg `xml:"ErrorMsg"`
	Mutatienummer int64    `xml:"Mutatienummer"`
}

type ledgerListResult struct {
	ErrorMsg errorMsg        `xml:"ErrorMsg"`
	Accounts []LedgerAccount `xml:"Rekeningen>cGrootboekrekening"`
}

// LedgerAccount is one chart-of-accounts row (diagnostics).
type LedgerAccount struct {
	ID           int64  `xml:"ID" json:"id"`
	Code         string `xml:"Code" json:"code"`
	Omschrijving string `xml:"Omschrijving" json:"description"`
	Categorie    string `xml:"Categorie" json:"category"`
}

type relatieListResult struct {
	ErrorMsg errorMsg        `xml:"ErrorMsg"`
	Relaties []RelatieRecord `xml:"Relaties>cRelatie"`
}

// RelatieRecord is one relation row (diagnostics).
type RelatieRecord struct {
	ID      int64  `xml:"ID" json:"id"`
	Code    string `xml:"Code" json:"code"`
	Bedrijf string `xml:"Bedrijf" json:"company"`
	Email   string `xml:"Email" json:"email"`
}

type artikelListResult struct {
	ErrorMsg  errorMsg        `xml:"ErrorMsg"`
	Artikelen []ArtikelRecord `xml:"Artikelen>cArtikel"`
}

// ArtikelRecord is one article row (diagnostics).
type ArtikelRecord struct {
	ArtikelID           int64  `xml:"ArtikelID" json:"id"`
	ArtikelCode         string `xml:"ArtikelCode" json:"code"`
	ArtikelOmschrijving string `xml:"ArtikelOmschrijving" json:"description"`
}

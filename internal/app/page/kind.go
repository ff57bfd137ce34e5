package page

import "github.com/sifan077/TrackDesk/internal/app/model"

// Kind selects one of the two form pages.
type Kind string

const (
	KindCreate   Kind = "create"
	KindRetrieve Kind = "retrieve"
)

// Kinds lists every page in navigation order.
var Kinds = []Kind{KindCreate, KindRetrieve}

// ParseKind maps a route parameter to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindCreate, KindRetrieve:
		return Kind(s), true
	}
	return "", false
}

func (k Kind) Path() string {
	if k == KindRetrieve {
		return "/retrieve"
	}
	return "/"
}

func (k Kind) Title() string {
	if k == KindRetrieve {
		return "Retrieve"
	}
	return "Create"
}

func (k Kind) SubmitLabel() string {
	if k == KindRetrieve {
		return "Get Metadata"
	}
	return "Create Track"
}

func (k Kind) BusyLabel() string {
	if k == KindRetrieve {
		return "Retrieving..."
	}
	return "Creating..."
}

func (k Kind) FallbackMessage() string {
	if k == KindRetrieve {
		return "Error retrieving track"
	}
	return "Error creating track"
}

// Operation is the lookup event operation name for this page.
func (k Kind) Operation() string {
	if k == KindRetrieve {
		return model.OperationRetrieve
	}
	return model.OperationCreate
}

package subscriber

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"log"

	"github.com/algorand/go-algorand-sdk/v2/abi"

	"github.com/algorandfoundation/algokit-subscriber-go/pkg/models"
)

// EventToProcess is a flattened, precomputed ARC-28 event definition with its
// log prefix ready for matching.
type EventToProcess struct {
	GroupName       string
	EventName       string
	EventSignature  string
	EventPrefix     string // First 4 bytes of SHA-512/256(signature), lowercase hex
	EventDefinition models.Arc28Event
}

// CompileArc28Events flattens the configured event groups into a single list
// of events with precomputed prefixes.
func CompileArc28Events(groups []models.Arc28EventGroup) []EventToProcess {
	var events []EventToProcess
	for _, group := range groups {
		for _, event := range group.Events {
			sig := event.Signature()
			events = append(events, EventToProcess{
				GroupName:       group.GroupName,
				EventName:       event.Name,
				EventSignature:  sig,
				EventPrefix:     EventPrefix(sig),
				EventDefinition: event,
			})
		}
	}
	return events
}

// EventPrefix returns the 8-hex-char log prefix of an ARC-28 event signature.
func EventPrefix(signature string) string {
	digest := sha512.Sum512_256([]byte(signature))
	return hex.EncodeToString(digest[:4])
}

// transactionInArc28EventGroup reports whether a transaction belongs to an
// event group. The transaction thunk is only invoked when the group carries a
// predicate, since building the record may be expensive.
func transactionInArc28EventGroup(
	group *models.Arc28EventGroup,
	appID uint64,
	transaction func() *models.SubscribedTransaction,
) bool {
	inGroup := len(group.ProcessForAppIDs) == 0
	for _, id := range group.ProcessForAppIDs {
		if id == appID {
			inGroup = true
			break
		}
	}

	if inGroup && group.ProcessTransaction != nil {
		inGroup = group.ProcessTransaction(transaction())
	}

	return inGroup
}

// HasMatchingArc28Event reports whether any log carries the prefix of an
// event selected by the filter, restricted to groups the transaction belongs
// to. Only prefixes are checked here; full decoding happens later in
// ExtractArc28Events.
func HasMatchingArc28Event(
	logs [][]byte,
	allEvents []EventToProcess,
	groups []models.Arc28EventGroup,
	eventFilter []models.Arc28EventFilter,
	appID uint64,
	transaction func() *models.SubscribedTransaction,
) bool {
	var potential []EventToProcess
	for _, e := range allEvents {
		selected := false
		for _, f := range eventFilter {
			if f.EventName == e.EventName && f.GroupName == e.GroupName {
				selected = true
				break
			}
		}
		if !selected {
			continue
		}
		group := findGroup(groups, e.GroupName)
		if group == nil || !transactionInArc28EventGroup(group, appID, transaction) {
			continue
		}
		potential = append(potential, e)
	}

	for _, logData := range logs {
		if len(logData) < 4 {
			continue
		}
		prefix := hex.EncodeToString(logData[:4])
		for _, e := range potential {
			if e.EventPrefix == prefix {
				return true
			}
		}
	}

	return false
}

// ExtractArc28Events decodes every log that matches an applicable event
// prefix. A decode failure aborts unless the event's group opted into
// continue-on-error.
func ExtractArc28Events(
	transactionID string,
	logs [][]byte,
	events []EventToProcess,
	continueOnError func(groupName string) bool,
) ([]models.EmittedArc28Event, error) {
	if len(events) == 0 {
		return nil, nil
	}

	var emitted []models.EmittedArc28Event

	for _, logData := range logs {
		if len(logData) <= 4 {
			continue
		}
		prefix := hex.EncodeToString(logData[:4])

		for _, e := range events {
			if e.EventPrefix != prefix {
				continue
			}

			event, err := decodeArc28Event(&e, logData[4:])
			if err != nil {
				if continueOnError(e.GroupName) {
					log.Printf("[Arc28] Failed to decode %s.%s on transaction %s: %v",
						e.GroupName, e.EventName, transactionID, err)
					continue
				}
				return nil, fmt.Errorf("decoding %s on transaction %s: %w", e.EventSignature, transactionID, err)
			}
			emitted = append(emitted, *event)
		}
	}

	return emitted, nil
}

func decodeArc28Event(e *EventToProcess, data []byte) (*models.EmittedArc28Event, error) {
	tupleType := "("
	for i, arg := range e.EventDefinition.Args {
		if i > 0 {
			tupleType += ","
		}
		tupleType += arg.Type
	}
	tupleType += ")"

	abiType, err := abi.TypeOf(tupleType)
	if err != nil {
		return nil, fmt.Errorf("parsing event tuple type %s: %w", tupleType, err)
	}

	decoded, err := abiType.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding event payload: %w", err)
	}

	values, ok := decoded.([]interface{})
	if !ok {
		return nil, fmt.Errorf("event payload decoded to %T, expected tuple", decoded)
	}
	if len(values) != len(e.EventDefinition.Args) {
		return nil, fmt.Errorf("event payload has %d values, expected %d", len(values), len(e.EventDefinition.Args))
	}

	args := make([]interface{}, len(values))
	argsByName := make(map[string]interface{})
	for i, arg := range e.EventDefinition.Args {
		args[i] = values[i]
		if arg.Name != "" {
			argsByName[arg.Name] = values[i]
		}
	}

	return &models.EmittedArc28Event{
		GroupName:       e.GroupName,
		EventName:       e.EventName,
		EventSignature:  e.EventSignature,
		EventPrefix:     e.EventPrefix,
		EventDefinition: e.EventDefinition,
		Args:            args,
		ArgsByName:      argsByName,
	}, nil
}

func findGroup(groups []models.Arc28EventGroup, name string) *models.Arc28EventGroup {
	for i := range groups {
		if groups[i].GroupName == name {
			return &groups[i]
		}
	}
	return nil
}

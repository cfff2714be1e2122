package player

// PropertyID enumerates the properties this adapter subscribes to via
// observe_property. Values are adopted verbatim from the original
// implementation's player/properties.rs.
type PropertyID uint64

const (
	PropertyTimePos PropertyID = 1
	PropertyPause   PropertyID = 2
	PropertyFile    PropertyID = 3
	PropertyDur     PropertyID = 4
	PropertyPath    PropertyID = 5
	PropertySpeed   PropertyID = 6
)

func (p PropertyID) name() string {
	switch p {
	case PropertyTimePos:
		return "time-pos"
	case PropertyPause:
		return "pause"
	case PropertyFile:
		return "filename"
	case PropertyDur:
		return "duration"
	case PropertyPath:
		return "path"
	case PropertySpeed:
		return "speed"
	default:
		return ""
	}
}

var observedProperties = []PropertyID{
	PropertyTimePos, PropertyPause, PropertyFile, PropertyDur, PropertyPath, PropertySpeed,
}

// State is the last known value of every observed property. Fields are nil
// until the player has reported a value at least once.
type State struct {
	Position *float64
	Paused   *bool
	Filename *string
	Duration *float64
	Path     *string
	Speed    *float64
}

func (s *State) apply(id PropertyID, value any) {
	switch id {
	case PropertyTimePos:
		if v, ok := asFloat(value); ok {
			s.Position = &v
		}
	case PropertyPause:
		if v, ok := value.(bool); ok {
			s.Paused = &v
		}
	case PropertyFile:
		if v, ok := value.(string); ok {
			s.Filename = &v
		}
	case PropertyDur:
		if v, ok := asFloat(value); ok {
			s.Duration = &v
		}
	case PropertyPath:
		if v, ok := value.(string); ok {
			s.Path = &v
		}
	case PropertySpeed:
		if v, ok := asFloat(value); ok {
			s.Speed = &v
		}
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// EventKind is the lifecycle-event taxonomy this adapter reports to its
// caller, adopted from the original implementation's player/events.rs.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventFileLoaded
	EventPlaybackRestart
	EventEndFile
	EventSeekCompleted
	EventPropertyChange
)

// EndFileReason classifies why playback of a file stopped.
type EndFileReason int

const (
	EndFileUnknown EndFileReason = iota
	EndFileEOF
	EndFileStop
	EndFileQuit
	EndFileError
	EndFileRedirect
)

func endFileReasonFromString(s string) EndFileReason {
	switch s {
	case "eof":
		return EndFileEOF
	case "stop":
		return EndFileStop
	case "quit":
		return EndFileQuit
	case "error":
		return EndFileError
	case "redirect":
		return EndFileRedirect
	default:
		return EndFileUnknown
	}
}

// Event is a single unsolicited notification from the player, together with
// the observed-property update that caused it when Kind is
// EventPropertyChange.
type Event struct {
	Kind       EventKind
	Reason     EndFileReason
	Name       string
	PropertyID PropertyID
	Value      any
}

func eventFromName(name string, reason string) Event {
	switch name {
	case "file-loaded":
		return Event{Kind: EventFileLoaded, Name: name}
	case "playback-restart":
		return Event{Kind: EventPlaybackRestart, Name: name}
	case "end-file":
		return Event{Kind: EventEndFile, Name: name, Reason: endFileReasonFromString(reason)}
	case "seek":
		return Event{Kind: EventSeekCompleted, Name: name}
	case "property-change":
		return Event{Kind: EventPropertyChange, Name: name}
	default:
		return Event{Kind: EventUnknown, Name: name}
	}
}

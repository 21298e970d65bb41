// Package script loads YAML frame scripts that drive an editor session
// without a UI and checks what each frame produced.
package script

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/msalah0e/nodecanvas/internal/drop"
	"github.com/msalah0e/nodecanvas/internal/editor"
	"github.com/msalah0e/nodecanvas/internal/geom"
	"github.com/msalah0e/nodecanvas/internal/valid"
)

var (
	ErrUnknownKey    = errors.New("unknown key")
	ErrUnknownAction = errors.New("unknown action")
	ErrBadEndpoint   = errors.New("endpoint must be item.slot")
)

// Script is a seeded composition plus the frames to feed it.
type Script struct {
	Name        string           `yaml:"name" validate:"required"`
	Composition string           `yaml:"composition,omitempty"`
	View        *geom.View       `yaml:"view,omitempty"`
	Items       []ItemYAML       `yaml:"items,omitempty" validate:"dive"`
	Connections []ConnectionYAML `yaml:"connections,omitempty" validate:"dive"`
	Annotations []AnnotationYAML `yaml:"annotations,omitempty" validate:"dive"`
	Frames      []FrameYAML      `yaml:"frames" validate:"required,min=1,dive"`
}

// ItemYAML is an operator instance placed before the first frame.
type ItemYAML struct {
	ID          string            `yaml:"id" validate:"required"`
	Symbol      string            `yaml:"symbol" validate:"required"`
	Name        string            `yaml:"name,omitempty"`
	Pos         geom.Vec2         `yaml:"pos"`
	Orientation string            `yaml:"orientation,omitempty" validate:"omitempty,oneof=horizontal vertical"`
	Inputs      map[string]string `yaml:"inputs,omitempty"`
}

// ConnectionYAML wires "item.slot" to "item.slot".
type ConnectionYAML struct {
	From string `yaml:"from" validate:"required"`
	To   string `yaml:"to" validate:"required"`
}

// AnnotationYAML is a titled frame around part of the canvas.
type AnnotationYAML struct {
	ID    string    `yaml:"id" validate:"required"`
	Title string    `yaml:"title"`
	Pos   geom.Vec2 `yaml:"pos"`
	Size  geom.Vec2 `yaml:"size"`
}

// FrameYAML is one frame of input, optionally repeated, with the state
// expected after it.
type FrameYAML struct {
	Repeat int `yaml:"repeat,omitempty" validate:"gte=0"`

	// Pointer keeps its previous value when omitted.
	Pointer *geom.Vec2 `yaml:"pointer,omitempty"`
	Press   bool       `yaml:"press,omitempty"`
	Down    bool       `yaml:"down,omitempty"`
	Release bool       `yaml:"release,omitempty"`

	Keys    []string `yaml:"keys,omitempty"`
	Shift   bool     `yaml:"shift,omitempty"`
	Ctrl    bool     `yaml:"ctrl,omitempty"`
	Text    string   `yaml:"text,omitempty"`
	Wheel   int      `yaml:"wheel,omitempty"`
	Actions []string `yaml:"actions,omitempty"`

	ExtractSlot string        `yaml:"extract_slot,omitempty"`
	Drop        *drop.Payload `yaml:"drop,omitempty"`
	Connection  *DanglingYAML `yaml:"connection,omitempty"`
	PopupOpen   bool          `yaml:"popup_open,omitempty"`
	Wait        bool          `yaml:"wait,omitempty"` // block until background drop copies finish
	Expect      *ExpectYAML   `yaml:"expect,omitempty"`
}

// DanglingYAML is a connection released over empty canvas.
type DanglingYAML struct {
	Item      string `yaml:"item" validate:"required"`
	Slot      string `yaml:"slot" validate:"required"`
	Type      string `yaml:"type"`
	FromInput bool   `yaml:"from_input,omitempty"`
	Multi     bool   `yaml:"multi,omitempty"`
}

// ExpectYAML lists checks run after a frame. Omitted fields are not
// checked.
type ExpectYAML struct {
	State       string               `yaml:"state,omitempty" validate:"omitempty,oneof=default placeholder rename-child rename-annotation dragging hold-background background"`
	Selection   []string             `yaml:"selection,omitempty"`
	Selected    *int                 `yaml:"selected,omitempty"`
	Items       *int                 `yaml:"items,omitempty"`
	Connections *int                 `yaml:"connections,omitempty"`
	History     *int                 `yaml:"history,omitempty"`
	Created     *int                 `yaml:"created,omitempty"`
	BrowserOpen *bool                `yaml:"browser_open,omitempty"`
	BrowserRows *int                 `yaml:"browser_rows,omitempty"`
	Positions   map[string]geom.Vec2 `yaml:"positions,omitempty"`
	Names       map[string]string    `yaml:"names,omitempty"`
}

// Load reads a script from a YAML file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a script. Unknown fields are rejected so a
// typo does not silently skip a check.
func Parse(data []byte) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := valid.Struct(&s); err != nil {
		return nil, fmt.Errorf("script %q: %w", s.Name, err)
	}
	for i, f := range s.Frames {
		if _, err := f.keys(); err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		if _, err := f.actions(); err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
	}
	for _, c := range s.Connections {
		for _, end := range []string{c.From, c.To} {
			if _, _, err := splitEndpoint(end); err != nil {
				return nil, err
			}
		}
	}
	return &s, nil
}

// FrameCount is the number of frames after expanding repeats.
func (s *Script) FrameCount() int {
	n := 0
	for _, f := range s.Frames {
		n += f.times()
	}
	return n
}

func (f FrameYAML) times() int {
	if f.Repeat < 1 {
		return 1
	}
	return f.Repeat
}

func (f FrameYAML) keys() (editor.Key, error) {
	var k editor.Key
	for _, name := range f.Keys {
		key, ok := editor.ParseKey(strings.ToLower(name))
		if !ok {
			return 0, fmt.Errorf("%q: %w", name, ErrUnknownKey)
		}
		k |= key
	}
	return k, nil
}

func (f FrameYAML) actions() ([]editor.Action, error) {
	out := make([]editor.Action, 0, len(f.Actions))
	for _, name := range f.Actions {
		a, ok := editor.ParseAction(strings.ToLower(name))
		if !ok {
			return nil, fmt.Errorf("%q: %w", name, ErrUnknownAction)
		}
		out = append(out, a)
	}
	return out, nil
}

// input builds the engine input of a frame. pointer carries over from
// the previous frame.
func (f FrameYAML) input(pointer geom.Vec2) (editor.Input, error) {
	keys, err := f.keys()
	if err != nil {
		return editor.Input{}, err
	}
	actions, err := f.actions()
	if err != nil {
		return editor.Input{}, err
	}
	if f.Pointer != nil {
		pointer = *f.Pointer
	}
	in := editor.Input{
		Pointer:     pointer,
		Pressed:     f.Press,
		Down:        f.Down || f.Press,
		Released:    f.Release,
		Keys:        keys,
		Shift:       f.Shift,
		Ctrl:        f.Ctrl,
		Text:        f.Text,
		Wheel:       f.Wheel,
		Actions:     actions,
		ExtractSlot: f.ExtractSlot,
		Drop:        f.Drop,
		PopupOpen:   f.PopupOpen,
	}
	if f.Release {
		in.Down = false
	}
	if c := f.Connection; c != nil {
		in.Connection = &editor.DanglingConnection{
			ItemID:    c.Item,
			Slot:      c.Slot,
			Type:      c.Type,
			FromInput: c.FromInput,
			Multi:     c.Multi,
		}
	}
	return in, nil
}

func splitEndpoint(s string) (item, slot string, err error) {
	i := strings.LastIndexByte(s, '.')
	if i <= 0 || i == len(s)-1 {
		return "", "", fmt.Errorf("%q: %w", s, ErrBadEndpoint)
	}
	return s[:i], s[i+1:], nil
}

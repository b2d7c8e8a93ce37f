package testdata

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/ayusman/pinchviz/internal/detector"
)

//go:embed hands/*.json
var handsFS embed.FS

// Step is one scripted detection. X and Y are in mirrored screen
// coordinates: the point the user sees, not the raw camera position.
type Step struct {
	// Pose is "pinch", "open", "point", "fist" or "none".
	Pose   string  `json:"pose"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Repeat int     `json:"repeat"`
}

// Script is a recorded hand interaction replayed one step per frame.
type Script struct {
	Description string `json:"description"`
	Steps       []Step `json:"steps"`
}

// LoadScript loads a hand script by name, without the .json extension.
func LoadScript(name string) (*Script, error) {
	data, err := handsFS.ReadFile("hands/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("load script %s: %w", name, err)
	}

	var s Script
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode script %s: %w", name, err)
	}
	return &s, nil
}

// Frames expands the script into one detection per frame, suitable for
// detector.MockDetector.SetSequence.
func (s *Script) Frames() ([][]detector.HandLandmarks, error) {
	var frames [][]detector.HandLandmarks
	for i, st := range s.Steps {
		hands, err := st.hands()
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		n := st.Repeat
		if n < 1 {
			n = 1
		}
		for j := 0; j < n; j++ {
			frames = append(frames, hands)
		}
	}
	return frames, nil
}

// hands converts the step into raw landmarks. Offsets put the thumb-index
// midpoint (or the index tip for pointing poses) at the mirrored position.
func (st Step) hands() ([]detector.HandLandmarks, error) {
	rx := 1 - st.X
	switch st.Pose {
	case "none":
		return nil, nil
	case "pinch":
		return []detector.HandLandmarks{detector.PinchLandmarks(rx-0.005, st.Y-0.005)}, nil
	case "open":
		return []detector.HandLandmarks{detector.OpenHandLandmarks(rx-0.075, st.Y-0.05)}, nil
	case "point":
		return []detector.HandLandmarks{detector.PointingLandmarks(rx, st.Y)}, nil
	case "fist":
		return []detector.HandLandmarks{detector.FistLandmarks(rx, st.Y)}, nil
	default:
		return nil, fmt.Errorf("unknown pose %q", st.Pose)
	}
}

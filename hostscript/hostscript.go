// Package hostscript writes converted keyframes as an After Effects
// ExtendScript. Running the script inside the host with a composition
// selected creates the camera (and the proxy nulls for direct mode) and sets
// every keyframe in one undo step.
package hostscript

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/template"

	"github.com/teranos/camio"
)

// Layer names created in the composition.
const (
	DefaultCameraName = "HLAE CamIO Camera"
	ProxyXZName       = "HLAE CamIO XZ"
	ProxyYName        = "HLAE CamIO Y"
	UndoGroupName     = "HLAE CamIO Import"
)

// Options controls the generated script.
type Options struct {
	CameraName string
	// MinCompWidth aborts the import in compositions narrower than the frame
	// the zoom was computed for. Zero disables the check.
	MinCompWidth float64
}

// DefaultOptions names the camera the way earlier imports did.
func DefaultOptions() Options {
	return Options{CameraName: DefaultCameraName}
}

type scriptData struct {
	Camera     string
	XZ         string
	Y          string
	UndoGroup  string
	Direct     bool
	CheckWidth bool
	Width      string
	Count      int
	Times      string
	Positions  string
	Rotations  string // matrix mode orientation triples
	XRotations string
	YRotations string
	ZRotations string
	Zooms      string
}

var script = template.Must(template.New("import").Funcs(template.FuncMap{
	"quote": strconv.Quote,
}).Parse(`(function () {
    var comp = app.project.activeItem;
    if (comp == null || !(comp instanceof CompItem)) {
        alert("Please select your comp to place the camera in.");
        return;
    }
{{- if .CheckWidth}}
    if (comp.width < {{.Width}}) {
        alert("Composition is narrower than the {{.Width}}px frame this camera was converted for.");
        return;
    }
{{- end}}

    app.beginUndoGroup({{quote .UndoGroup}});
    comp.time = 0;

    var times = {{.Times}};
    var camera = comp.layers.addCamera({{quote .Camera}}, [0, 0]);
    camera.autoOrient = AutoOrientType.NO_AUTO_ORIENT;
    camera.property("Position").setValue([0, 0, 0]);
{{- if .Direct}}

    var xz = comp.layers.addNull();
    xz.threeDLayer = true;
    xz.property("Position").setValue([0, 0, 0]);
    xz.name = {{quote .XZ}};

    var y = comp.layers.addNull();
    y.threeDLayer = true;
    y.property("Position").setValue([0, 0, 0]);
    y.name = {{quote .Y}};

    camera.parent = xz;
    xz.parent = y;

    y.transform.position.setValuesAtTimes(times, {{.Positions}});
    xz.transform.xRotation.setValuesAtTimes(times, {{.XRotations}});
    y.transform.yRotation.setValuesAtTimes(times, {{.YRotations}});
    xz.transform.zRotation.setValuesAtTimes(times, {{.ZRotations}});
{{- else}}

    camera.transform.position.setValuesAtTimes(times, {{.Positions}});
    camera.transform.orientation.setValuesAtTimes(times, {{.Rotations}});
{{- end}}
    camera.cameraOption.zoom.setValuesAtTimes(times, {{.Zooms}});

    app.endUndoGroup();
    alert("Successfully imported camera with {{.Count}} frames.");
})();
`))

// Generate writes the import script for res. An empty result still produces
// a script; it creates the layers without keyframes.
func Generate(w io.Writer, res *camio.Result, opts Options) error {
	if opts.CameraName == "" {
		opts.CameraName = DefaultCameraName
	}
	if res.Mode != camio.RotationMatrix && res.Mode != camio.RotationDirect {
		return fmt.Errorf("hostscript: unresolved rotation mode %s", res.Mode)
	}

	data := scriptData{
		Camera:     opts.CameraName,
		XZ:         ProxyXZName,
		Y:          ProxyYName,
		UndoGroup:  UndoGroupName,
		Direct:     res.Mode == camio.RotationDirect,
		CheckWidth: opts.MinCompWidth > 0,
		Width:      number(opts.MinCompWidth),
		Count:      len(res.Frames),
	}

	var times, zooms, xr, yr, zr []float64
	var positions, rotations [][3]float64
	for _, f := range res.Frames {
		times = append(times, f.Time)
		zooms = append(zooms, f.Zoom)
		if data.Direct {
			rig := f.ProxyRig()
			positions = append(positions, [3]float64{rig.Outer.Position.X, rig.Outer.Position.Y, rig.Outer.Position.Z})
			xr = append(xr, rig.Inner.XRotation)
			yr = append(yr, rig.Outer.YRotation)
			zr = append(zr, rig.Inner.ZRotation)
		} else {
			positions = append(positions, [3]float64{f.Position.X, f.Position.Y, f.Position.Z})
			rotations = append(rotations, [3]float64{f.Rotation.X, f.Rotation.Y, f.Rotation.Z})
		}
	}

	data.Times = scalars(times)
	data.Zooms = scalars(zooms)
	data.Positions = triples(positions)
	data.Rotations = triples(rotations)
	data.XRotations = scalars(xr)
	data.YRotations = scalars(yr)
	data.ZRotations = scalars(zr)

	if err := script.Execute(w, data); err != nil {
		return fmt.Errorf("hostscript: %w", err)
	}
	return nil
}

// number formats v as a JavaScript numeric literal.
func number(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case math.IsNaN(v):
		return "NaN"
	case v == 0:
		v = 0 // no "-0" in the script
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func scalars(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = number(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func triples(values [][3]float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = "[" + number(v[0]) + ", " + number(v[1]) + ", " + number(v[2]) + "]"
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

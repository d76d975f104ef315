package printing

import "fmt"

// CallOp names a device-context primitive
type CallOp string

const (
	CallStartDoc     CallOp = "StartDoc"
	CallStartPage    CallOp = "StartPage"
	CallCreateFont   CallOp = "CreateFont"
	CallSelectObject CallOp = "SelectObject"
	CallTextOut      CallOp = "TextOut"
	CallEndPage      CallOp = "EndPage"
	CallEndDoc       CallOp = "EndDoc"
	CallDeleteDC     CallOp = "DeleteDC"
)

// FontSpec is a logical font as created on a device context
type FontSpec struct {
	Face      string `json:"face"`
	Height    int    `json:"height"`
	Weight    int    `json:"weight"`
	Underline bool   `json:"underline,omitempty"`
}

// DeviceCall is one device-context call
type DeviceCall struct {
	Op      CallOp    `json:"op"`
	X       int       `json:"x,omitempty"`
	Y       int       `json:"y,omitempty"`
	Text    string    `json:"text,omitempty"`
	Font    *FontSpec `json:"font,omitempty"`
	FontID  int       `json:"font_id,omitempty"`
	DocName string    `json:"doc_name,omitempty"`
}

// String returns a compact form of the call
func (c DeviceCall) String() string {
	switch c.Op {
	case CallStartDoc:
		return fmt.Sprintf("StartDoc(%q)", c.DocName)
	case CallCreateFont:
		return fmt.Sprintf("CreateFont#%d(%s,%d,%d,%t)", c.FontID, c.Font.Face, c.Font.Height, c.Font.Weight, c.Font.Underline)
	case CallSelectObject:
		return fmt.Sprintf("SelectObject#%d", c.FontID)
	case CallTextOut:
		return fmt.Sprintf("TextOut(%d,%d,%q)", c.X, c.Y, c.Text)
	default:
		return string(c.Op)
	}
}

// Output is the encoded form of a plan. Byte-stream backends fill Data,
// the device-context backend fills Calls.
type Output struct {
	Kind        BackendKind
	Data        []byte
	Calls       []DeviceCall
	ContentType string
	Pages       int
}

// Size returns the byte length or call count of the output
func (o *Output) Size() int {
	if o.Calls != nil {
		return len(o.Calls)
	}
	return len(o.Data)
}

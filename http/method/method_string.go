// Code generated by "stringer -type=Method"; adapted by hand for the client
// side so the module doesn't need `go generate` wired into its build.
package method

import "strconv"

const methodName = "UnknownGETHEADPOSTPUTDELETECONNECTOPTIONSTRACEPATCH"

var methodIndex = [...]uint8{0, 7, 10, 14, 18, 21, 27, 34, 41, 46, 51}

func (m Method) String() string {
	if m >= Method(len(methodIndex)-1) {
		return "Method(" + strconv.FormatInt(int64(m), 10) + ")"
	}

	return methodName[methodIndex[m]:methodIndex[m+1]]
}

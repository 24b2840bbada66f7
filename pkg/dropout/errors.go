package dropout

import "errors"

var errAlreadyInState = errors.New("lifecycle is already in this state")
var errStateRegression = errors.New("lifecycle only moves forward")

package graph

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("animated/graph", "animated node graph")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)

package manifest_test

import (
	"fmt"

	"github.com/matzehuels/schemaflow/pkg/manifest"
)

func ExampleMarshal() {
	m := manifest.New()
	m.Meta.Description = "example mappings"
	m.Tables["users"] = map[string]manifest.Mapping{
		"email": {
			Targets: []manifest.Target{
				{Schema: "tenant", Table: "accounts", Column: "email", Transform: "LOWER(email)"},
			},
		},
	}

	data, _ := manifest.Marshal(m)
	fmt.Println(string(data))
	// Output:
	// {
	//   "_meta": {
	//     "version": "2.0.0",
	//     "description": "example mappings"
	//   },
	//   "users": {
	//     "email": {
	//       "targets": [
	//         {
	//           "db": "tenant",
	//           "table": "accounts",
	//           "column": "email",
	//           "sql": "LOWER(email)"
	//         }
	//       ]
	//     }
	//   }
	// }
}

func ExampleManifest_ColumnDeprecation() {
	m := manifest.New()
	m.Tables["users"] = map[string]manifest.Mapping{
		"ssn": {Deprecated: true, Reason: "no longer stored"},
	}

	reason, ok := m.ColumnDeprecation("users", "ssn")
	fmt.Println(ok, reason)
	// Output: true no longer stored
}

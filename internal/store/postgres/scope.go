// Copyright 2026 The Invexia Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package postgres

import (
	"fmt"

	"github.com/invexia/invexia/internal/tenant"
)

// scopeClause translates a tenant filter into a SQL predicate on the given
// column. The predicate is ANDed into every scoped query, so the zero-value
// filter yields FALSE and a broken caller reads nothing rather than
// everything.
func scopeClause(filter tenant.Filter, column string, argIndex int) (string, []any) {
	if filter.IsUnrestricted() {
		return "TRUE", nil
	}
	if entrepriseID, ok := filter.EntrepriseID(); ok {
		return fmt.Sprintf("%s = $%d", column, argIndex), []any{entrepriseID}
	}
	return "FALSE", nil
}

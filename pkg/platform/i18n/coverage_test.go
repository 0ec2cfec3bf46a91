package i18n_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic/internal/contact"
	orgmodels "clinic/internal/organization/models"
	profmodels "clinic/internal/professional/models"
	usermodels "clinic/internal/user/models"
	"clinic/pkg/platform/i18n"
	"clinic/pkg/platform/validation"
	"clinic/pkg/secrets"
)

func TestCatalogCoversMessages(t *testing.T) {
	c, err := i18n.Load("en")
	require.NoError(t, err)

	messages := []validation.Message{
		contact.MsgPhoneDDIInvalid, contact.MsgPhoneDDDRequired, contact.MsgPhoneDDDInvalid,
		contact.MsgPhoneNumberRequired, contact.MsgPhoneNumberInvalid, contact.MsgPhoneInvalid,
		contact.MsgStreetRequired, contact.MsgStreetTooLong, contact.MsgNumberRequired, contact.MsgNumberTooLong,
		contact.MsgComplementTooLong, contact.MsgDistrictRequired, contact.MsgDistrictTooLong,
		contact.MsgZipCodeRequired, contact.MsgZipCodeInvalid, contact.MsgCityRequired, contact.MsgCityTooLong,
		contact.MsgStateRequired, contact.MsgStateInvalid,
		usermodels.MsgNameRequired, usermodels.MsgNameTooShort, usermodels.MsgNameTooLong,
		usermodels.MsgEmailRequired, usermodels.MsgEmailInvalid, usermodels.MsgCurrentPasswordInvalid,
		orgmodels.MsgTradeNameRequired, orgmodels.MsgTradeNameTooLong, orgmodels.MsgLegalNameRequired,
		orgmodels.MsgLegalNameTooLong, orgmodels.MsgCNPJRequired, orgmodels.MsgCNPJInvalid,
		profmodels.MsgNameRequired, profmodels.MsgNameTooShort, profmodels.MsgNameTooLong,
		profmodels.MsgDocumentRequired, profmodels.MsgDocumentInvalid, profmodels.MsgRGTooLong, profmodels.MsgRGInvalid,
		profmodels.MsgBirthDateInvalid, profmodels.MsgBirthDateFuture, profmodels.MsgBirthDateTooEarly,
		profmodels.MsgGenderInvalid, profmodels.MsgEmailInvalid,
		secrets.MsgPasswordRequired, secrets.MsgPasswordTooShort, secrets.MsgPasswordTooLong,
		secrets.MsgPasswordUpper, secrets.MsgPasswordLower, secrets.MsgPasswordDigit, secrets.MsgPasswordSpecial,
	}
	for _, m := range messages {
		en, ok := c.Translate("en", m.Key)
		if assert.True(t, ok, "en is missing %q", m.Key) {
			assert.Equal(t, m.Default, en, m.Key)
		}
		pt, ok := c.Translate("pt-BR", m.Key)
		assert.True(t, ok)
		assert.NotEqual(t, m.Default, pt, "%q is not translated", m.Key)
	}

	for _, board := range []string{"crp", "crn"} {
		for _, rule := range []string{"required", "too_long", "invalid"} {
			_, ok := c.Translate("pt-BR", "professional."+board+"."+rule)
			assert.True(t, ok, "missing professional.%s.%s", board, rule)
		}
	}
}

package domain

// SignerMethod names one operation a tapplet may invoke on the session signer.
// The set is closed: anything not listed here is rejected with UnknownMethodError.
type SignerMethod string

const (
	MethodGetAccount                   SignerMethod = "getAccount"
	MethodGetAccountBalances           SignerMethod = "getAccountBalances"
	MethodGetAccountsBalances          SignerMethod = "getAccountsBalances"
	MethodGetAccountsList              SignerMethod = "getAccountsList"
	MethodSubmitTransaction            SignerMethod = "submitTransaction"
	MethodGetTransactionResult         SignerMethod = "getTransactionResult"
	MethodListSubstates                SignerMethod = "listSubstates"
	MethodGetSubstate                  SignerMethod = "getSubstate"
	MethodGetTemplateDefinition        SignerMethod = "getTemplateDefinition"
	MethodCreateFreeTestCoins          SignerMethod = "createFreeTestCoins"
	MethodCreateAccount                SignerMethod = "createAccount"
	MethodSetDefaultAccount            SignerMethod = "setDefaultAccount"
	MethodGetNftsList                  SignerMethod = "getNftsList"
	MethodGetPublicKey                 SignerMethod = "getPublicKey"
	MethodGetConfidentialVaultBalances SignerMethod = "getConfidentialVaultBalances"
	MethodPublishTemplate              SignerMethod = "transactionsPublishTemplate"
	MethodRequestParentSize            SignerMethod = "requestParentSize"
)

var signerMethods = map[SignerMethod]struct{}{
	MethodGetAccount:                   {},
	MethodGetAccountBalances:           {},
	MethodGetAccountsBalances:          {},
	MethodGetAccountsList:              {},
	MethodSubmitTransaction:            {},
	MethodGetTransactionResult:         {},
	MethodListSubstates:                {},
	MethodGetSubstate:                  {},
	MethodGetTemplateDefinition:        {},
	MethodCreateFreeTestCoins:          {},
	MethodCreateAccount:                {},
	MethodSetDefaultAccount:            {},
	MethodGetNftsList:                  {},
	MethodGetPublicKey:                 {},
	MethodGetConfidentialVaultBalances: {},
	MethodPublishTemplate:              {},
	MethodRequestParentSize:            {},
}

// ParseSignerMethod resolves a wire method name to a SignerMethod.
func ParseSignerMethod(name string) (SignerMethod, error) {
	m := SignerMethod(name)
	if _, ok := signerMethods[m]; !ok {
		return "", UnknownMethodError{Method: name}
	}
	return m, nil
}

func (m SignerMethod) String() string {
	return string(m)
}

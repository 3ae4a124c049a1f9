package httppresentation

import (
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	appOrder "github.com/Zhima-Mochi/minishop-storefront/internal/application/order"
)

// Message keys. Product-specific messages take the product name as their only argument.
const (
	msgInvalidBody        = "invalid-body"
	msgUnauthorized       = "unauthorized"
	msgForbidden          = "forbidden"
	msgInternal           = "internal"
	msgProduct            = "product"
	msgEmptyCart          = appOrder.CodeEmptyCart
	msgMissingIdentity    = appOrder.CodeMissingIdentity
	msgMissingProductRef  = appOrder.CodeMissingProductRef
	msgProductsNotFound   = appOrder.CodeProductsNotFound
	msgProductUnavailable = appOrder.CodeProductUnavailable
	msgInsufficientStock  = appOrder.CodeInsufficientStock
	msgStoreFailure       = appOrder.CodeStoreFailure
)

var supportedLanguages = []language.Tag{language.English, language.Turkish}

var (
	languageMatcher = language.NewMatcher(supportedLanguages)
	messageCatalog  = buildCatalog()
)

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	set := func(tag language.Tag, key, msg string) {
		if err := b.SetString(tag, key, msg); err != nil {
			panic(err)
		}
	}

	set(language.English, msgInvalidBody, "The request body could not be read. Please fix it and try again.")
	set(language.English, msgUnauthorized, "Please sign in to continue.")
	set(language.English, msgForbidden, "You are not allowed to do that.")
	set(language.English, msgInternal, "Something went wrong. Please try again later.")
	set(language.English, msgProduct, "This product")
	set(language.English, msgEmptyCart, "Your cart is empty.")
	set(language.English, msgMissingIdentity, "Please sign in or enter a valid email address.")
	set(language.English, msgMissingProductRef, "A product in your cart is invalid. Please fix your cart and try again.")
	set(language.English, msgProductsNotFound, "Some products in your cart no longer exist.")
	set(language.English, msgProductUnavailable, "%s is no longer available.")
	set(language.English, msgInsufficientStock, "%s does not have enough stock.")
	set(language.English, msgStoreFailure, "We could not place your order. Please try again later.")

	set(language.Turkish, msgInvalidBody, "İstek okunamadı. Lütfen düzeltip tekrar deneyin.")
	set(language.Turkish, msgUnauthorized, "Devam etmek için lütfen giriş yapın.")
	set(language.Turkish, msgForbidden, "Bu işlem için yetkiniz yok.")
	set(language.Turkish, msgInternal, "Bir şeyler ters gitti. Lütfen daha sonra tekrar deneyin.")
	set(language.Turkish, msgProduct, "Bu ürün")
	set(language.Turkish, msgEmptyCart, "Sepetiniz boş.")
	set(language.Turkish, msgMissingIdentity, "Lütfen giriş yapın veya geçerli bir e-posta adresi girin.")
	set(language.Turkish, msgMissingProductRef, "Sepetinizdeki bir ürün geçersiz. Lütfen sepetinizi düzeltip tekrar deneyin.")
	set(language.Turkish, msgProductsNotFound, "Sepetinizdeki bazı ürünler artık mevcut değil.")
	set(language.Turkish, msgProductUnavailable, "%s artık satışta değil.")
	set(language.Turkish, msgInsufficientStock, "%s için yeterli stok yok.")
	set(language.Turkish, msgStoreFailure, "Siparişiniz oluşturulamadı. Lütfen daha sonra tekrar deneyin.")

	return b
}

// printerFor picks the best supported language from Accept-Language.
func printerFor(r *http.Request) *message.Printer {
	tag, _ := language.MatchStrings(languageMatcher, r.Header.Get("Accept-Language"))
	base, _ := tag.Base()
	for _, t := range supportedLanguages {
		if b, _ := t.Base(); b == base {
			tag = t
			break
		}
	}
	return message.NewPrinter(tag, message.Catalog(messageCatalog))
}

func localize(r *http.Request, key, product string) string {
	p := printerFor(r)
	if key == msgProductUnavailable || key == msgInsufficientStock {
		if product == "" {
			product = p.Sprintf(msgProduct)
		}
		return p.Sprintf(key, product)
	}
	return p.Sprintf(key)
}
